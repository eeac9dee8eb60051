package models

import "time"

type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Name  string `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Color string `gorm:"size:7;uniqueIndex;not null" json:"color"`
	Slug  string `gorm:"size:200;uniqueIndex;not null" json:"slug"`
}

func (Tag) TableName() string { return "tags" }

type Ingredient struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Name            string `gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit" json:"name"`
	MeasurementUnit string `gorm:"size:200;not null;uniqueIndex:idx_ingredient_name_unit" json:"measurement_unit"`
}

func (Ingredient) TableName() string { return "ingredients" }

type Recipe struct {
	ID          uint               `gorm:"primaryKey"`
	AuthorID    uint               `gorm:"not null;index"`
	Author      User               `gorm:"constraint:OnDelete:CASCADE;"`
	Name        string             `gorm:"size:200;not null"`
	Text        string             `gorm:"not null"`
	Image       string             `gorm:"size:255"`
	CookingTime int                `gorm:"not null;check:chk_recipe_cooking_time,cooking_time >= 1"`
	Tags        []Tag              `gorm:"many2many:recipe_tags;"`
	Ingredients []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt   time.Time          `gorm:"index"`

	IsFavorited      bool `gorm:"->;-:migration"`
	IsInShoppingCart bool `gorm:"->;-:migration"`
}

func (Recipe) TableName() string { return "recipes" }

// RecipeIngredient 菜谱与食材的关联，带数量
type RecipeIngredient struct {
	ID           uint       `gorm:"primaryKey"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient;index"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:RESTRICT;"`
	Amount       int        `gorm:"not null;check:chk_recipe_ingredient_amount,amount >= 1"`
}

func (RecipeIngredient) TableName() string { return "recipe_ingredients" }

type FavoriteRecipe struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	User      User   `gorm:"constraint:OnDelete:CASCADE;"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time
}

func (FavoriteRecipe) TableName() string { return "favorite_recipes" }

type ShoppingCart struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	User      User   `gorm:"constraint:OnDelete:CASCADE;"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt time.Time
}

func (ShoppingCart) TableName() string { return "shopping_carts" }

// All 需要自动迁移的全部模型
func All() []interface{} {
	return []interface{}{
		&User{}, &Token{}, &Subscribe{},
		&Tag{}, &Ingredient{}, &Recipe{}, &RecipeIngredient{},
		&FavoriteRecipe{}, &ShoppingCart{},
	}
}
