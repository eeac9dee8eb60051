package models

import "time"

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"column:email;size:254;uniqueIndex;not null" json:"email"`
	Username  string    `gorm:"column:username;size:150;uniqueIndex;not null" json:"username"`
	FirstName string    `gorm:"column:first_name;size:150" json:"first_name"`
	LastName  string    `gorm:"column:last_name;size:150" json:"last_name"`
	Password  string    `gorm:"column:password;size:128;not null" json:"-"`
	IsAdmin   bool      `gorm:"column:is_admin;default:false" json:"-"`
	CreatedAt time.Time `json:"-"`

	// 只读注解列，由查询时的 EXISTS / COUNT 子查询填充
	IsSubscribed bool  `gorm:"->;-:migration" json:"is_subscribed"`
	RecipesCount int64 `gorm:"->;-:migration" json:"-"`
}

func (User) TableName() string { return "users" }

// Token 登录令牌，每个用户最多一个
type Token struct {
	Key       string `gorm:"primaryKey;size:40"`
	UserID    uint   `gorm:"uniqueIndex;not null"`
	User      User   `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time
}

func (Token) TableName() string { return "auth_tokens" }

// Subscribe 关注关系：UserID 关注 AuthorID
type Subscribe struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_subscribe_user_author"`
	User      User `gorm:"constraint:OnDelete:CASCADE;"`
	AuthorID  uint `gorm:"not null;uniqueIndex:idx_subscribe_user_author;index;check:chk_subscribe_not_self,user_id <> author_id"`
	Author    User `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time
}

func (Subscribe) TableName() string { return "subscribes" }
