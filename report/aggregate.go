// Package report 生成购物清单 PDF：汇总购物车中所有菜谱的食材，分页排版后渲染。
package report

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// CartItem 同名同单位的食材合并后的一行
type CartItem struct {
	Name   string
	Unit   string
	Amount int64
}

// Aggregate 按 (名称, 单位) 汇总用户购物车中的食材数量，按名称、单位升序
func Aggregate(ctx context.Context, db *gorm.DB, userID uint) ([]CartItem, error) {
	var items []CartItem
	err := db.WithContext(ctx).
		Table("shopping_carts").
		Select("ingredients.name AS name, ingredients.measurement_unit AS unit, SUM(recipe_ingredients.amount) AS amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shopping_carts.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate shopping cart: %w", err)
	}
	return items, nil
}
