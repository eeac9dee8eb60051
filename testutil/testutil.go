// Package testutil 测试用数据库与数据构造辅助函数。
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/studieren/foodgram_back/config"
	"github.com/studieren/foodgram_back/database"
	"github.com/studieren/foodgram_back/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewDB 在临时目录创建一个已迁移的 sqlite 数据库
func NewDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(tb.TempDir(), "test.db"),
	})
	if err != nil {
		tb.Fatalf("open test database: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser 直接写库创建用户，密码使用最低 bcrypt 成本
func CreateUser(tb testing.TB, db *gorm.DB, username, password string) *models.User {
	tb.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		tb.Fatal(err)
	}
	u := &models.User{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: username,
		LastName:  "Tester",
		Password:  string(hash),
	}
	if err := db.Create(u).Error; err != nil {
		tb.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func CreateTag(tb testing.TB, db *gorm.DB, name, color, slug string) *models.Tag {
	tb.Helper()
	tag := &models.Tag{Name: name, Color: color, Slug: slug}
	if err := db.Create(tag).Error; err != nil {
		tb.Fatalf("create tag %s: %v", slug, err)
	}
	return tag
}

func CreateIngredient(tb testing.TB, db *gorm.DB, name, unit string) *models.Ingredient {
	tb.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		tb.Fatalf("create ingredient %s: %v", name, err)
	}
	return ing
}

// IngredientAmount 用于 CreateRecipe 的食材行
type IngredientAmount struct {
	Ingredient *models.Ingredient
	Amount     int
}

// CreateRecipe 绕过服务层直接写入菜谱及其关联
func CreateRecipe(tb testing.TB, db *gorm.DB, author *models.User, name string, tags []*models.Tag, lines ...IngredientAmount) *models.Recipe {
	tb.Helper()
	r := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        name + " text",
		Image:       "/media/recipes/test.png",
		CookingTime: 10,
	}
	if err := db.Omit("Tags", "Ingredients", "Author").Create(r).Error; err != nil {
		tb.Fatalf("create recipe %s: %v", name, err)
	}
	for _, tag := range tags {
		if err := db.Model(r).Association("Tags").Append(tag); err != nil {
			tb.Fatalf("attach tag: %v", err)
		}
	}
	for _, l := range lines {
		ri := &models.RecipeIngredient{RecipeID: r.ID, IngredientID: l.Ingredient.ID, Amount: l.Amount}
		if err := db.Omit("Ingredient").Create(ri).Error; err != nil {
			tb.Fatalf("create recipe ingredient: %v", err)
		}
	}
	return r
}

func AddToCart(tb testing.TB, db *gorm.DB, user *models.User, recipe *models.Recipe) {
	tb.Helper()
	if err := db.Omit("User", "Recipe").Create(&models.ShoppingCart{UserID: user.ID, RecipeID: recipe.ID}).Error; err != nil {
		tb.Fatalf("add to cart: %v", err)
	}
}
