package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/studieren/foodgram_back/gormtool"
	"github.com/studieren/foodgram_back/models"
	"gorm.io/gorm"
)

var (
	colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	slugPattern  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// TagService 标签：公开读取，管理员维护，读取走缓存
type TagService struct {
	tool *gormtool.CRUDTool
}

func NewTagService(tool *gormtool.CRUDTool) *TagService {
	return &TagService{tool: tool}
}

// TagInput 更新时空字段表示不修改
type TagInput struct {
	Name  string
	Color string
	Slug  string
}

func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	key := s.tool.GenerateCacheKey(&tags, "all")
	err := s.tool.ListCached(ctx, key, &tags, func(db *gorm.DB) error {
		return db.Order("id").Find(&tags).Error
	})
	return tags, err
}

func (s *TagService) Get(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.tool.GetByID(ctx, &tag, id); err != nil {
		return nil, notFound(err)
	}
	return &tag, nil
}

func (s *TagService) Create(ctx context.Context, in TagInput) (tag *models.Tag, err error) {
	start := time.Now()
	defer func() {
		s.tool.LogOperation(ctx, "create_tag", &models.Tag{}, time.Since(start), err, map[string]interface{}{"slug": in.Slug})
	}()

	tag = &models.Tag{}
	if err = applyTag(tag, in, true); err != nil {
		return nil, err
	}
	if err = s.tool.DB.WithContext(ctx).Create(tag).Error; err != nil {
		return nil, tagConflict(err)
	}
	s.tool.InvalidateModel(ctx, tag)
	return tag, nil
}

func (s *TagService) Update(ctx context.Context, id uint, in TagInput) (tag *models.Tag, err error) {
	start := time.Now()
	defer func() {
		s.tool.LogOperation(ctx, "update_tag", &models.Tag{}, time.Since(start), err, map[string]interface{}{"id": id})
	}()

	tag = &models.Tag{}
	err = s.tool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(tag, id).Error; err != nil {
			return notFound(err)
		}
		if err := applyTag(tag, in, false); err != nil {
			return err
		}
		return tagConflict(tx.Save(tag).Error)
	})
	if err != nil {
		return nil, err
	}
	s.tool.InvalidateModel(ctx, tag)
	return tag, nil
}

// Delete 删除标签并解除与菜谱的关联
func (s *TagService) Delete(ctx context.Context, id uint) (err error) {
	start := time.Now()
	defer func() {
		s.tool.LogOperation(ctx, "delete_tag", &models.Tag{}, time.Since(start), err, map[string]interface{}{"id": id})
	}()

	err = s.tool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.Tag{}, id); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE tag_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Tag{}, id).Error
	})
	if err == nil {
		s.tool.InvalidateModel(ctx, &models.Tag{})
	}
	return err
}

func applyTag(tag *models.Tag, in TagInput, create bool) error {
	verr := &ValidationError{}
	if v := strings.TrimSpace(in.Name); v != "" {
		tag.Name = v
	} else if create {
		verr.Add("name", "该字段不能为空")
	}
	if in.Color != "" {
		if !colorPattern.MatchString(in.Color) {
			verr.Add("color", "颜色必须是 #RRGGBB 格式")
		}
		tag.Color = strings.ToUpper(in.Color)
	} else if create {
		verr.Add("color", "该字段不能为空")
	}
	if in.Slug != "" {
		if !slugPattern.MatchString(in.Slug) {
			verr.Add("slug", "slug 只能包含字母、数字、连字符和下划线")
		}
		tag.Slug = in.Slug
	} else if create {
		verr.Add("slug", "该字段不能为空")
	}
	return verr.Err()
}

func tagConflict(err error) error {
	if isDuplicate(err) {
		return NewValidationError("non_field_errors", "名称、颜色或 slug 已被其他标签使用")
	}
	return err
}

// IngredientService 食材：公开读取，按名称前缀过滤，管理员维护
type IngredientService struct {
	tool *gormtool.CRUDTool
}

func NewIngredientService(tool *gormtool.CRUDTool) *IngredientService {
	return &IngredientService{tool: tool}
}

type IngredientInput struct {
	Name            string
	MeasurementUnit string
}

// List 名称前缀不区分大小写；结果按名称排序
func (s *IngredientService) List(ctx context.Context, namePrefix string) ([]models.Ingredient, error) {
	namePrefix = strings.TrimSpace(namePrefix)

	var ingredients []models.Ingredient
	key := s.tool.GenerateCacheKey(&ingredients, "name="+strings.ToLower(namePrefix))
	err := s.tool.ListCached(ctx, key, &ingredients, func(db *gorm.DB) error {
		qb := &gormtool.QueryBuilder{}
		if namePrefix != "" {
			qb.Where("ingredients.name", "PREFIX", namePrefix)
		}
		qb.OrderBy("ingredients.name", "ASC").OrderBy("ingredients.id", "ASC")
		return s.tool.BuildQuery(db, qb).Find(&ingredients).Error
	})
	return ingredients, err
}

func (s *IngredientService) Get(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ing models.Ingredient
	if err := s.tool.GetByID(ctx, &ing, id); err != nil {
		return nil, notFound(err)
	}
	return &ing, nil
}

func (s *IngredientService) Create(ctx context.Context, in IngredientInput) (ing *models.Ingredient, err error) {
	start := time.Now()
	defer func() {
		s.tool.LogOperation(ctx, "create_ingredient", &models.Ingredient{}, time.Since(start), err, map[string]interface{}{"name": in.Name})
	}()

	ing = &models.Ingredient{}
	if err = applyIngredient(ing, in, true); err != nil {
		return nil, err
	}
	if err = s.tool.DB.WithContext(ctx).Create(ing).Error; err != nil {
		return nil, ingredientConflict(err)
	}
	s.tool.InvalidateModel(ctx, ing)
	return ing, nil
}

func (s *IngredientService) Update(ctx context.Context, id uint, in IngredientInput) (ing *models.Ingredient, err error) {
	start := time.Now()
	defer func() {
		s.tool.LogOperation(ctx, "update_ingredient", &models.Ingredient{}, time.Since(start), err, map[string]interface{}{"id": id})
	}()

	ing = &models.Ingredient{}
	err = s.tool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(ing, id).Error; err != nil {
			return notFound(err)
		}
		if err := applyIngredient(ing, in, false); err != nil {
			return err
		}
		return ingredientConflict(tx.Save(ing).Error)
	})
	if err != nil {
		return nil, err
	}
	s.tool.InvalidateModel(ctx, ing)
	return ing, nil
}

// Delete 被菜谱使用的食材不能删除
func (s *IngredientService) Delete(ctx context.Context, id uint) (err error) {
	start := time.Now()
	defer func() {
		s.tool.LogOperation(ctx, "delete_ingredient", &models.Ingredient{}, time.Since(start), err, map[string]interface{}{"id": id})
	}()

	err = s.tool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.Ingredient{}, id); err != nil {
			return err
		}
		var used int64
		if err := tx.Model(&models.RecipeIngredient{}).Where("ingredient_id = ?", id).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return NewValidationError("non_field_errors", "食材正在被菜谱使用，不能删除")
		}
		return tx.Delete(&models.Ingredient{}, id).Error
	})
	if err == nil {
		s.tool.InvalidateModel(ctx, &models.Ingredient{})
	}
	return err
}

func applyIngredient(ing *models.Ingredient, in IngredientInput, create bool) error {
	verr := &ValidationError{}
	if v := strings.TrimSpace(in.Name); v != "" {
		ing.Name = v
	} else if create {
		verr.Add("name", "该字段不能为空")
	}
	if v := strings.TrimSpace(in.MeasurementUnit); v != "" {
		ing.MeasurementUnit = v
	} else if create {
		verr.Add("measurement_unit", "该字段不能为空")
	}
	return verr.Err()
}

func ingredientConflict(err error) error {
	if isDuplicate(err) {
		return NewValidationError("non_field_errors", "该食材与计量单位的组合已存在")
	}
	return err
}
