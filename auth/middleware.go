package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/studieren/foodgram_back/gormtool"
	"github.com/studieren/foodgram_back/logging"
	"github.com/studieren/foodgram_back/models"
)

const (
	userContextKey = "auth.user"
	tokenKeyword   = "Token"
)

// TokenAuth 解析 "Authorization: Token <key>"。
// 没有请求头时按匿名用户继续；令牌无效时返回 401。
func TokenAuth(store *TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		keyword, key, ok := strings.Cut(strings.TrimSpace(header), " ")
		if !ok || keyword != tokenKeyword {
			abort(c, http.StatusUnauthorized, "认证头格式错误")
			return
		}

		user, err := store.Lookup(c.Request.Context(), strings.TrimSpace(key))
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) {
				logging.Ctx(c.Request.Context()).Error().Err(err).Msg("查询令牌失败")
			}
			abort(c, http.StatusUnauthorized, "令牌无效")
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireAuth 未登录返回 401
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			abort(c, http.StatusUnauthorized, "未提供身份认证信息")
			return
		}
		c.Next()
	}
}

// RequireAdmin 非管理员返回 403，未登录返回 401
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "未提供身份认证信息")
			return
		}
		if !user.IsAdmin {
			abort(c, http.StatusForbidden, "没有执行该操作的权限")
			return
		}
		c.Next()
	}
}

// CurrentUser 当前请求的登录用户
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// CurrentUserID 匿名用户返回 0
func CurrentUserID(c *gin.Context) uint {
	if user, ok := CurrentUser(c); ok {
		return user.ID
	}
	return 0
}

func abort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gormtool.Response{Code: code, Message: msg})
}
