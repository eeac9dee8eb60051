package service

import "gorm.io/gorm"

// withSubscribed 为 users 查询加上 is_subscribed；匿名用户保持 false
func withSubscribed(viewerID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == 0 {
			return db
		}
		return db.Select(
			"users.*, EXISTS (SELECT 1 FROM subscribes s WHERE s.user_id = ? AND s.author_id = users.id) AS is_subscribed",
			viewerID,
		)
	}
}

// withRecipeFlags 为 recipes 查询加上 is_favorited 与 is_in_shopping_cart
func withRecipeFlags(viewerID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if viewerID == 0 {
			return db
		}
		return db.Select(
			"recipes.*, "+
				"EXISTS (SELECT 1 FROM favorite_recipes f WHERE f.recipe_id = recipes.id AND f.user_id = ?) AS is_favorited, "+
				"EXISTS (SELECT 1 FROM shopping_carts c WHERE c.recipe_id = recipes.id AND c.user_id = ?) AS is_in_shopping_cart",
			viewerID, viewerID,
		)
	}
}

// recipeDetail 预加载读接口需要的全部关联，顺序固定
func recipeDetail(viewerID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Preload("Author", withSubscribed(viewerID)).
			Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
			Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
			Preload("Ingredients.Ingredient")
	}
}

func newestFirst(table string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".created_at DESC").Order(table + ".id DESC")
	}
}
