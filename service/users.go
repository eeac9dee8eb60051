package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/studieren/foodgram_back/auth"
	"github.com/studieren/foodgram_back/gormtool"
	"github.com/studieren/foodgram_back/metrics"
	"github.com/studieren/foodgram_back/models"
	"gorm.io/gorm"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// 与 /users/me/ 路由冲突的保留用户名
const reservedUsername = "me"

const passwordTooLong = "密码不能超过 72 字节"

type UserService struct {
	tool       *gormtool.CRUDTool
	tokens     *auth.TokenStore
	bcryptCost int
}

func NewUserService(tool *gormtool.CRUDTool, tokens *auth.TokenStore, bcryptCost int) *UserService {
	return &UserService{tool: tool, tokens: tokens, bcryptCost: bcryptCost}
}

type RegisterInput struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Password  string
}

// Register 注册新用户，邮箱与用户名唯一
func (s *UserService) Register(ctx context.Context, in RegisterInput) (user *models.User, err error) {
	start := time.Now()
	defer func() {
		s.tool.LogOperation(ctx, "register_user", &models.User{}, time.Since(start), err, map[string]interface{}{
			"username": in.Username,
		})
	}()

	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)

	verr := &ValidationError{}
	if !usernamePattern.MatchString(in.Username) {
		verr.Add("username", "用户名只能包含字母、数字和 @/./+/-/_")
	}
	if strings.EqualFold(in.Username, reservedUsername) {
		verr.Add("username", "不能使用该用户名")
	}
	if len(in.Password) > auth.MaxPasswordBytes {
		verr.Add("password", passwordTooLong)
	}
	if err = verr.Err(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user = &models.User{
		Email:     in.Email,
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hash,
	}

	err = s.tool.WithTransaction(ctx, func(tx *gorm.DB) error {
		var taken []models.User
		if err := tx.Select("email", "username").
			Where("LOWER(email) = LOWER(?) OR username = ?", in.Email, in.Username).
			Find(&taken).Error; err != nil {
			return err
		}
		dup := &ValidationError{}
		for _, u := range taken {
			if strings.EqualFold(u.Email, in.Email) {
				dup.Add("email", "该邮箱已被注册")
			}
			if u.Username == in.Username {
				dup.Add("username", "该用户名已被使用")
			}
		}
		if err := dup.Err(); err != nil {
			return err
		}

		if err := tx.Create(user).Error; err != nil {
			if isDuplicate(err) {
				return NewValidationError("username", "该用户名或邮箱已被使用")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login 校验邮箱与密码，返回该用户的令牌
func (s *UserService) Login(ctx context.Context, email, password string) (key string, err error) {
	var user models.User
	err = s.tool.DB.WithContext(ctx).Where("LOWER(email) = LOWER(?)", strings.TrimSpace(email)).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	if err != nil || !auth.CheckPassword(user.Password, password) {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return "", NewValidationError("non_field_errors", "无法使用提供的凭据登录")
	}

	key, err = s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return "", err
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	return key, nil
}

func (s *UserService) Logout(ctx context.Context, userID uint) error {
	return s.tokens.Revoke(ctx, userID)
}

// List 分页列出用户，按 id 升序
func (s *UserService) List(ctx context.Context, viewerID uint, page gormtool.PageRequest) ([]models.User, *gormtool.Pagination, error) {
	var users []models.User
	q := s.tool.DB.WithContext(ctx).Model(&models.User{})
	p, err := s.tool.Paginate(q, page, &users, withSubscribed(viewerID), func(db *gorm.DB) *gorm.DB {
		return db.Order("users.id")
	})
	if err != nil {
		return nil, nil, err
	}
	return users, p, nil
}

// Get 按 id 获取用户，带 is_subscribed
func (s *UserService) Get(ctx context.Context, viewerID, id uint) (*models.User, error) {
	var user models.User
	err := s.tool.DB.WithContext(ctx).Scopes(withSubscribed(viewerID)).First(&user, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// SetPassword 校验当前密码后更新，已发放的令牌保持有效
func (s *UserService) SetPassword(ctx context.Context, user *models.User, current, next string) (err error) {
	start := time.Now()
	defer func() {
		s.tool.LogOperation(ctx, "set_password", user, time.Since(start), err, map[string]interface{}{"user_id": user.ID})
	}()

	var stored models.User
	if err = s.tool.DB.WithContext(ctx).Select("id", "password").First(&stored, user.ID).Error; err != nil {
		return notFound(err)
	}
	if !auth.CheckPassword(stored.Password, current) {
		return NewValidationError("current_password", "当前密码不正确")
	}
	if current == next {
		return NewValidationError("new_password", "新密码不能与当前密码相同")
	}
	if len(next) > auth.MaxPasswordBytes {
		return NewValidationError("new_password", passwordTooLong)
	}

	hash, err := auth.HashPassword(next, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.tool.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Update("password", hash).Error
}
