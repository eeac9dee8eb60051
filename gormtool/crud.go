// gormtool\crud.go
package gormtool

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// 扩展的结构定义
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

// Response 统一响应格式
type Response struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Data    interface{}         `json:"data,omitempty"`
	Page    *Pagination         `json:"page,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// PageRequest 分页参数
type PageRequest struct {
	Page int
	Size int
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Size
}

// CRUDTool 数据访问工具：事务、分页、缓存、日志
type CRUDTool struct {
	DB        *gorm.DB
	Cache     *Cache
	Logger    Logger
	EnableLog bool
}

// NewCRUDTool 创建新的 CRUD 工具；cache 为 nil 时不使用缓存
func NewCRUDTool(db *gorm.DB, cache *Cache, logger Logger) *CRUDTool {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	if cache == nil {
		cache = NewCache(nil, CacheTTL)
	}
	return &CRUDTool{
		DB:        db,
		Cache:     cache,
		Logger:    logger,
		EnableLog: true,
	}
}

// LogOperation 记录操作日志
//
//	t.LogOperation(ctx, "create_recipe", &models.Recipe{}, time.Since(start), err, map[string]interface{}{
//		"author_id": userID,
//	})
func (t *CRUDTool) LogOperation(ctx context.Context, operation string, model interface{}, duration time.Duration, err error, additionalFields map[string]interface{}) {
	if !t.EnableLog {
		return
	}

	fields := map[string]interface{}{
		"operation": operation,
		"duration":  duration.String(),
		"model":     fmt.Sprintf("%T", model),
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	for k, v := range additionalFields {
		fields[k] = v
	}

	if err != nil {
		t.Logger.Error(ctx, "操作失败", fields)
	} else {
		t.Logger.Debug(ctx, "操作成功", fields)
	}
}

// 事务相关方法
type TxFunc func(tx *gorm.DB) error

// WithTransaction 执行事务
func (t *CRUDTool) WithTransaction(ctx context.Context, fn TxFunc) error {
	return t.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
}

// Paginate 统计总数并查询一页；count 走独立会话，scopes 只作用于数据查询
func (t *CRUDTool) Paginate(q *gorm.DB, req PageRequest, dest interface{}, scopes ...func(*gorm.DB) *gorm.DB) (*Pagination, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := q.Scopes(scopes...).Limit(req.Size).Offset(req.Offset()).Find(dest).Error; err != nil {
		return nil, err
	}
	return &Pagination{
		Page:     req.Page,
		PageSize: req.Size,
		Total:    int(total),
	}, nil
}

// GetByID 根据 ID 查询单条记录，命中缓存则直接返回
func (t *CRUDTool) GetByID(ctx context.Context, model interface{}, id uint, preloads ...string) error {
	start := time.Now()
	var err error
	defer func() {
		t.LogOperation(ctx, "get_by_id", model, time.Since(start), ignoreNotFound(err), map[string]interface{}{"id": id})
	}()

	cacheKey := t.GenerateCacheKey(model, id)
	if t.Cache.Get(ctx, cacheKey, model) {
		return nil
	}

	db := t.DB.WithContext(ctx)
	for _, preload := range preloads {
		db = db.Preload(preload)
	}
	if err = db.First(model, id).Error; err != nil {
		return err
	}

	_ = t.Cache.Set(ctx, cacheKey, model)
	return nil
}

// ListCached 读穿缓存：缓存未命中时执行 query 并回填
func (t *CRUDTool) ListCached(ctx context.Context, key string, dest interface{}, query func(db *gorm.DB) error) error {
	if t.Cache.Get(ctx, key, dest) {
		return nil
	}
	if err := query(t.DB.WithContext(ctx)); err != nil {
		return err
	}
	_ = t.Cache.Set(ctx, key, dest)
	return nil
}

// GenerateCacheKey 缓存键: "<类型>:<id>"
func (t *CRUDTool) GenerateCacheKey(model interface{}, id interface{}) string {
	return fmt.Sprintf("%s:%v", t.CachePrefix(model), id)
}

// CachePrefix 某类模型全部缓存键的公共前缀，如 "models.Tag"
func (t *CRUDTool) CachePrefix(model interface{}) string {
	return strings.TrimLeft(fmt.Sprintf("%T", model), "*[]")
}

// InvalidateModel 删除某类模型的全部缓存
func (t *CRUDTool) InvalidateModel(ctx context.Context, model interface{}) {
	if err := t.Cache.DeletePrefix(ctx, t.CachePrefix(model)+":"); err != nil {
		t.Logger.Warn(ctx, "缓存失效失败", map[string]interface{}{
			"model": fmt.Sprintf("%T", model),
			"error": err.Error(),
		})
	}
}

func ignoreNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
