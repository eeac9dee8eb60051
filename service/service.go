package service

import (
	"github.com/studieren/foodgram_back/auth"
	"github.com/studieren/foodgram_back/gormtool"
)

// Services 汇总全部业务服务，供 api 层使用
type Services struct {
	Users         *UserService
	Subscriptions *SubscriptionService
	Tags          *TagService
	Ingredients   *IngredientService
	Recipes       *RecipeService
}

func New(tool *gormtool.CRUDTool, tokens *auth.TokenStore, images ImageStore, bcryptCost int) *Services {
	return &Services{
		Users:         NewUserService(tool, tokens, bcryptCost),
		Subscriptions: NewSubscriptionService(tool),
		Tags:          NewTagService(tool),
		Ingredients:   NewIngredientService(tool),
		Recipes:       NewRecipeService(tool, images),
	}
}
