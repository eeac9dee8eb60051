package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/studieren/foodgram_back/auth"
	"github.com/studieren/foodgram_back/gormtool"
	"github.com/studieren/foodgram_back/report"
	"github.com/studieren/foodgram_back/service"
)

// Handler 持有全部 HTTP 处理函数的依赖
type Handler struct {
	svc             *service.Services
	tokens          *auth.TokenStore
	reports         *report.Generator
	tool            *gormtool.CRUDTool
	defaultPageSize int
	maxPageSize     int
}

func NewHandler(svc *service.Services, tokens *auth.TokenStore, reports *report.Generator, tool *gormtool.CRUDTool, defaultPageSize, maxPageSize int) *Handler {
	if defaultPageSize <= 0 {
		defaultPageSize = 6
	}
	if maxPageSize < defaultPageSize {
		maxPageSize = defaultPageSize
	}
	return &Handler{
		svc:             svc,
		tokens:          tokens,
		reports:         reports,
		tool:            tool,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// pageRequest 读取 ?page=&limit=，非法值回退到默认值
func (h *Handler) pageRequest(c *gin.Context) gormtool.PageRequest {
	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	size := queryInt(c, "limit", h.defaultPageSize)
	if size < 1 {
		size = h.defaultPageSize
	}
	if size > h.maxPageSize {
		size = h.maxPageSize
	}
	return gormtool.PageRequest{Page: page, Size: size}
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

// pathID 解析路径中的正整数 id，失败时写出 404
func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, http.StatusNotFound, "资源不存在", nil)
		return 0, false
	}
	return uint(id), true
}

// truthy 过滤参数 1/true 视为真
func truthy(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
