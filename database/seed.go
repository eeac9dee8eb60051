package database

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/studieren/foodgram_back/gormtool"
	"github.com/studieren/foodgram_back/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultTags 初始标签
var DefaultTags = []models.Tag{
	{Name: "Breakfast", Color: "#00FF00", Slug: "breakfast"},
	{Name: "Lunch", Color: "#FF0000", Slug: "dinner"},
	{Name: "Supper", Color: "#0000FF", Slug: "supper"},
}

// SeedTags 写入初始标签，已存在的跳过。返回新插入的数量。
// 有新行时清掉标签缓存。
func SeedTags(ctx context.Context, tool *gormtool.CRUDTool) (int64, error) {
	tags := make([]models.Tag, len(DefaultTags))
	copy(tags, DefaultTags)

	res := tool.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&tags)
	if res.Error != nil {
		return 0, fmt.Errorf("seed tags: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		tool.InvalidateModel(ctx, &models.Tag{})
	}
	return res.RowsAffected, nil
}

type ingredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// ImportIngredients 从 JSON 文件导入食材：[{"name": "...", "measurement_unit": "..."}]
// 已存在的 (name, measurement_unit) 组合跳过。
func ImportIngredients(ctx context.Context, tool *gormtool.CRUDTool, path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read ingredients file: %w", err)
	}

	var records []ingredientRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("parse ingredients file %s: %w", path, err)
	}

	ingredients := make([]models.Ingredient, 0, len(records))
	seen := make(map[ingredientRecord]struct{}, len(records))
	for i, r := range records {
		r.Name = strings.TrimSpace(r.Name)
		r.MeasurementUnit = strings.TrimSpace(r.MeasurementUnit)
		if r.Name == "" || r.MeasurementUnit == "" {
			return 0, fmt.Errorf("record %d: name and measurement_unit are required", i)
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		ingredients = append(ingredients, models.Ingredient{Name: r.Name, MeasurementUnit: r.MeasurementUnit})
	}
	if len(ingredients) == 0 {
		return 0, nil
	}

	res := tool.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&ingredients, 500)
	if res.Error != nil {
		return 0, fmt.Errorf("import ingredients: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		tool.InvalidateModel(ctx, &models.Ingredient{})
	}
	return res.RowsAffected, nil
}

// PromoteAdmin 把已注册用户设为管理员
func PromoteAdmin(ctx context.Context, db *gorm.DB, email string) error {
	res := db.WithContext(ctx).Model(&models.User{}).
		Where("LOWER(email) = LOWER(?)", strings.TrimSpace(email)).
		Update("is_admin", true)
	if res.Error != nil {
		return fmt.Errorf("promote admin: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("promote admin: user with email %q not found", email)
	}
	return nil
}
