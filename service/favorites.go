package service

import (
	"context"
	"time"

	"github.com/studieren/foodgram_back/models"
	"gorm.io/gorm"
)

// membership 收藏与购物车共用的“用户-菜谱”关系
type membership struct {
	model     interface{}
	operation string
	duplicate string
	build     func(userID, recipeID uint) interface{}
}

var (
	favorites = membership{
		model:     &models.FavoriteRecipe{},
		operation: "favorite",
		duplicate: "菜谱已在收藏中",
		build: func(userID, recipeID uint) interface{} {
			return &models.FavoriteRecipe{UserID: userID, RecipeID: recipeID}
		},
	}
	cart = membership{
		model:     &models.ShoppingCart{},
		operation: "shopping_cart",
		duplicate: "菜谱已在购物车中",
		build: func(userID, recipeID uint) interface{} {
			return &models.ShoppingCart{UserID: userID, RecipeID: recipeID}
		},
	}
)

// AddFavorite 收藏菜谱；重复收藏返回校验错误
func (s *RecipeService) AddFavorite(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	return s.add(ctx, favorites, userID, recipeID)
}

// RemoveFavorite 取消收藏；未收藏时同样成功
func (s *RecipeService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, favorites, userID, recipeID)
}

// AddToCart 加入购物车；重复加入返回校验错误
func (s *RecipeService) AddToCart(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	return s.add(ctx, cart, userID, recipeID)
}

// RemoveFromCart 移出购物车；不在购物车时同样成功
func (s *RecipeService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	return s.remove(ctx, cart, userID, recipeID)
}

func (s *RecipeService) add(ctx context.Context, m membership, userID, recipeID uint) (recipe *models.Recipe, err error) {
	start := time.Now()
	defer func() {
		s.tool.LogOperation(ctx, "add_"+m.operation, m.model, time.Since(start), err, map[string]interface{}{
			"user_id":   userID,
			"recipe_id": recipeID,
		})
	}()

	recipe = &models.Recipe{}
	err = s.tool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(recipe, recipeID).Error; err != nil {
			return notFound(err)
		}

		var count int64
		if err := tx.Model(m.model).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return NewValidationError("errors", m.duplicate)
		}

		if err := tx.Omit("User", "Recipe").Create(m.build(userID, recipeID)).Error; err != nil {
			if isDuplicate(err) {
				return NewValidationError("errors", m.duplicate)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *RecipeService) remove(ctx context.Context, m membership, userID, recipeID uint) (err error) {
	start := time.Now()
	defer func() {
		s.tool.LogOperation(ctx, "remove_"+m.operation, m.model, time.Since(start), err, map[string]interface{}{
			"user_id":   userID,
			"recipe_id": recipeID,
		})
	}()

	return s.tool.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := ensureExists(tx, &models.Recipe{}, recipeID); err != nil {
			return err
		}
		return tx.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(m.model).Error
	})
}

// FavoriteCount 菜谱被收藏的次数
type FavoriteCount struct {
	RecipeID  uint   `json:"recipe_id"`
	Name      string `json:"name"`
	Favorites int64  `json:"favorites"`
}

// TopFavorited 收藏次数最多的菜谱
func (s *RecipeService) TopFavorited(ctx context.Context, limit int) ([]FavoriteCount, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []FavoriteCount
	err := s.tool.DB.WithContext(ctx).
		Table("favorite_recipes").
		Select("recipes.id AS recipe_id, recipes.name AS name, COUNT(favorite_recipes.id) AS favorites").
		Joins("JOIN recipes ON recipes.id = favorite_recipes.recipe_id").
		Group("recipes.id, recipes.name").
		Order("favorites DESC").Order("recipes.id").
		Limit(limit).
		Scan(&out).Error
	return out, err
}
