package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/studieren/foodgram_back/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInvalidToken = errors.New("invalid token")

// TokenStore 不透明令牌：每个用户一个，登录时复用，登出时删除
type TokenStore struct {
	DB *gorm.DB
}

func NewTokenStore(db *gorm.DB) *TokenStore {
	return &TokenStore{DB: db}
}

// NewKey 生成 32 位十六进制令牌
func NewKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Issue 返回用户已有令牌，没有则创建
func (s *TokenStore) Issue(ctx context.Context, userID uint) (string, error) {
	db := s.DB.WithContext(ctx)
	tok := models.Token{Key: NewKey(), UserID: userID}
	// 并发登录时唯一索引冲突的一方读回已存在的令牌
	if err := db.Omit("User").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&tok).Error; err != nil {
		return "", err
	}

	var existing models.Token
	if err := db.Where("user_id = ?", userID).First(&existing).Error; err != nil {
		return "", err
	}
	return existing.Key, nil
}

// Revoke 删除用户令牌，不存在时不报错
func (s *TokenStore) Revoke(ctx context.Context, userID uint) error {
	return s.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Token{}).Error
}

// Lookup 根据令牌查找用户
func (s *TokenStore) Lookup(ctx context.Context, key string) (*models.User, error) {
	if key == "" {
		return nil, ErrInvalidToken
	}
	var tok models.Token
	err := s.DB.WithContext(ctx).Preload("User").Where(&models.Token{Key: key}).First(&tok).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	return &tok.User, nil
}
