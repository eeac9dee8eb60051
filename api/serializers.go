package api

import (
	"github.com/studieren/foodgram_back/models"
	"github.com/studieren/foodgram_back/service"
)

type UserOut struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

func userOut(u *models.User) UserOut {
	return UserOut{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: u.IsSubscribed,
	}
}

type TagOut struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

func tagOut(t *models.Tag) TagOut {
	return TagOut{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func tagsOut(tags []models.Tag) []TagOut {
	out := make([]TagOut, len(tags))
	for i := range tags {
		out[i] = tagOut(&tags[i])
	}
	return out
}

type IngredientOut struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

func ingredientOut(i *models.Ingredient) IngredientOut {
	return IngredientOut{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func ingredientsOut(list []models.Ingredient) []IngredientOut {
	out := make([]IngredientOut, len(list))
	for i := range list {
		out[i] = ingredientOut(&list[i])
	}
	return out
}

// RecipeIngredientOut id 是食材的 id，不是关联行的 id
type RecipeIngredientOut struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type RecipeOut struct {
	ID               uint                  `json:"id"`
	Tags             []TagOut              `json:"tags"`
	Author           UserOut               `json:"author"`
	Ingredients      []RecipeIngredientOut `json:"ingredients"`
	IsFavorited      bool                  `json:"is_favorited"`
	IsInShoppingCart bool                  `json:"is_in_shopping_cart"`
	Name             string                `json:"name"`
	Image            string                `json:"image"`
	Text             string                `json:"text"`
	CookingTime      int                   `json:"cooking_time"`
}

func recipeOut(r *models.Recipe) RecipeOut {
	lines := make([]RecipeIngredientOut, len(r.Ingredients))
	for i, ri := range r.Ingredients {
		lines[i] = RecipeIngredientOut{
			ID:              ri.IngredientID,
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		}
	}
	return RecipeOut{
		ID:               r.ID,
		Tags:             tagsOut(r.Tags),
		Author:           userOut(&r.Author),
		Ingredients:      lines,
		IsFavorited:      r.IsFavorited,
		IsInShoppingCart: r.IsInShoppingCart,
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
	}
}

func recipesOut(list []models.Recipe) []RecipeOut {
	out := make([]RecipeOut, len(list))
	for i := range list {
		out[i] = recipeOut(&list[i])
	}
	return out
}

// RecipeShort 收藏、购物车和关注列表里的精简菜谱
type RecipeShort struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

func recipeShort(r *models.Recipe) RecipeShort {
	return RecipeShort{ID: r.ID, Name: r.Name, Image: r.Image, CookingTime: r.CookingTime}
}

type SubscriptionOut struct {
	UserOut
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int64         `json:"recipes_count"`
}

func subscriptionOut(s *service.Subscription) SubscriptionOut {
	recipes := make([]RecipeShort, len(s.Recipes))
	for i := range s.Recipes {
		recipes[i] = recipeShort(&s.Recipes[i])
	}
	return SubscriptionOut{
		UserOut:      userOut(&s.Author),
		Recipes:      recipes,
		RecipesCount: s.Author.RecipesCount,
	}
}

// 请求体

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,max=150"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SetPasswordRequest struct {
	NewPassword     string `json:"new_password" binding:"required,max=150"`
	CurrentPassword string `json:"current_password" binding:"required"`
}

// TagRequest 创建时全部必填（由服务层检查），PATCH 时空字段不修改
type TagRequest struct {
	Name  string `json:"name" binding:"omitempty,max=200"`
	Color string `json:"color" binding:"omitempty,max=7"`
	Slug  string `json:"slug" binding:"omitempty,max=200"`
}

type IngredientRequest struct {
	Name            string `json:"name" binding:"omitempty,max=200"`
	MeasurementUnit string `json:"measurement_unit" binding:"omitempty,max=200"`
}

type RecipeIngredientRequest struct {
	ID     uint `json:"id" binding:"required"`
	Amount int  `json:"amount" binding:"required,min=1"`
}

type RecipeRequest struct {
	Ingredients []RecipeIngredientRequest `json:"ingredients" binding:"required,min=1,dive"`
	Tags        []uint                    `json:"tags" binding:"required,min=1,dive,required"`
	Image       string                    `json:"image"`
	Name        string                    `json:"name" binding:"required,max=200"`
	Text        string                    `json:"text" binding:"required"`
	CookingTime int                       `json:"cooking_time" binding:"required,min=1"`
}

func (r RecipeRequest) input() service.RecipeInput {
	lines := make([]service.IngredientLine, len(r.Ingredients))
	for i, l := range r.Ingredients {
		lines[i] = service.IngredientLine{ID: l.ID, Amount: l.Amount}
	}
	return service.RecipeInput{
		Name:        r.Name,
		Text:        r.Text,
		Image:       r.Image,
		CookingTime: r.CookingTime,
		Tags:        r.Tags,
		Ingredients: lines,
	}
}
