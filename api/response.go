// Package api HTTP 接口：gin 路由、请求绑定、序列化与错误映射。
package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/studieren/foodgram_back/auth"
	"github.com/studieren/foodgram_back/gormtool"
	"github.com/studieren/foodgram_back/logging"
	"github.com/studieren/foodgram_back/service"
)

var registerTagName sync.Once

// useJSONFieldNames 让校验错误里的字段名与 JSON 字段一致
func useJSONFieldNames() {
	registerTagName.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
}

func ok(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gormtool.Response{Code: code, Message: "success", Data: data})
}

func paged(c *gin.Context, data interface{}, page *gormtool.Pagination) {
	c.JSON(http.StatusOK, gormtool.Response{Code: http.StatusOK, Message: "success", Data: data, Page: page})
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func fail(c *gin.Context, code int, msg string, fields map[string][]string) {
	c.AbortWithStatusJSON(code, gormtool.Response{Code: code, Message: msg, Errors: fields})
}

// respondError 把业务错误映射为状态码；未知错误只记录日志，不把细节返回给客户端
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		fail(c, http.StatusBadRequest, "请求参数错误", verr.Fields)
	case errors.Is(err, service.ErrNotFound):
		fail(c, http.StatusNotFound, "资源不存在", nil)
	case errors.Is(err, service.ErrForbidden):
		fail(c, http.StatusForbidden, "没有执行该操作的权限", nil)
	case errors.Is(err, auth.ErrInvalidToken):
		fail(c, http.StatusUnauthorized, "令牌无效", nil)
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("请求处理失败")
		fail(c, http.StatusInternalServerError, "服务器内部错误", nil)
	}
}

// bind 绑定并校验 JSON 请求体，失败时已写出 400 响应
func bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, http.StatusBadRequest, "请求参数错误", bindErrors(err))
		return false
	}
	return true
}

func bindErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string][]string{"non_field_errors": {"请求数据格式错误"}}
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := topLevelField(fe.Namespace())
		out[field] = append(out[field], fieldMessage(fe))
	}
	return out
}

// topLevelField "RecipeRequest.ingredients[0].amount" -> "ingredients"
func topLevelField(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		rest = namespace
	}
	name, _, _ := strings.Cut(rest, ".")
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "该字段不能为空"
	case "email":
		return "请输入有效的邮箱地址"
	case "max":
		return fmt.Sprintf("%s 的长度或数值不能超过 %s", fe.Field(), fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s 的长度或数值不能少于 %s", fe.Field(), fe.Param())
	case "hexcolor":
		return "颜色必须是 #RRGGBB 格式"
	default:
		return fmt.Sprintf("%s 校验失败 (%s)", fe.Field(), fe.Tag())
	}
}
