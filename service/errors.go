// Package service 业务逻辑：用户、关注、标签、食材、菜谱、收藏与购物车。
package service

import (
	"errors"
	"sort"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("资源不存在")
	ErrForbidden = errors.New("没有执行该操作的权限")
)

// ValidationError 字段级校验错误，映射为 400
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError 创建只含一个字段错误的 ValidationError
func NewValidationError(field, msg string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, msg)
	return e
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return "校验失败: " + strings.Join(parts, ", ")
}

// Err 没有字段错误时返回 nil
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
