package gormtool

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// QueryCondition 查询条件结构
type QueryCondition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"` // =, !=, >, <, >=, <=, LIKE, PREFIX, IN, EXISTS
	Value    interface{} `json:"value"`
}

// SortCondition 排序条件
type SortCondition struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // ASC, DESC
}

// QueryBuilder 查询构建器
type QueryBuilder struct {
	Conditions []QueryCondition `json:"conditions"`
	Sorts      []SortCondition  `json:"sorts"`
}

// Where 追加条件，便于链式构建
func (qb *QueryBuilder) Where(field, operator string, value interface{}) *QueryBuilder {
	qb.Conditions = append(qb.Conditions, QueryCondition{Field: field, Operator: operator, Value: value})
	return qb
}

// OrderBy 追加排序
func (qb *QueryBuilder) OrderBy(field, direction string) *QueryBuilder {
	qb.Sorts = append(qb.Sorts, SortCondition{Field: field, Direction: direction})
	return qb
}

// BuildQuery 把 QueryBuilder 应用到 db。
// IN 的 Value 可以是切片或 *gorm.DB 子查询；EXISTS 的 Value 是子查询，Field 不使用。
func (t *CRUDTool) BuildQuery(db *gorm.DB, qb *QueryBuilder) *gorm.DB {
	if qb == nil {
		return db
	}

	// 构建条件
	for _, cond := range qb.Conditions {
		switch strings.ToUpper(cond.Operator) {
		case "=", "!=", ">", "<", ">=", "<=":
			db = db.Where(fmt.Sprintf("%s %s ?", cond.Field, cond.Operator), cond.Value)
		case "LIKE":
			db = db.Where(fmt.Sprintf("%s LIKE ? ESCAPE '\\'", cond.Field), "%"+escapeLike(fmt.Sprint(cond.Value))+"%")
		case "PREFIX":
			// 不区分大小写的前缀匹配
			db = db.Where(fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '\\'", cond.Field), escapeLike(strings.ToLower(fmt.Sprint(cond.Value)))+"%")
		case "IN":
			db = db.Where(fmt.Sprintf("%s IN (?)", cond.Field), cond.Value)
		case "EXISTS":
			db = db.Where("EXISTS (?)", cond.Value)
		}
	}

	// 构建排序
	for _, sort := range qb.Sorts {
		db = db.Order(fmt.Sprintf("%s %s", sort.Field, sort.Direction))
	}

	return db
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
