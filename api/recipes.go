package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studieren/foodgram_back/auth"
	"github.com/studieren/foodgram_back/models"
	"github.com/studieren/foodgram_back/service"
)

func (h *Handler) listRecipes(c *gin.Context) {
	filter := service.RecipeFilter{
		Tags:             c.QueryArray("tags"),
		IsFavorited:      truthy(c.Query("is_favorited")),
		IsInShoppingCart: truthy(c.Query("is_in_shopping_cart")),
	}
	if author := queryInt(c, "author", 0); author > 0 {
		filter.AuthorID = uint(author)
	}

	recipes, page, err := h.svc.Recipes.List(c.Request.Context(), auth.CurrentUserID(c), filter, h.pageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	paged(c, recipesOut(recipes), page)
}

func (h *Handler) getRecipe(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	recipe, err := h.svc.Recipes.Get(c.Request.Context(), auth.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, recipeOut(recipe))
}

func (h *Handler) createRecipe(c *gin.Context) {
	var req RecipeRequest
	if !bind(c, &req) {
		return
	}
	user, _ := auth.CurrentUser(c)
	recipe, err := h.svc.Recipes.Create(c.Request.Context(), user, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, recipeOut(recipe))
}

func (h *Handler) updateRecipe(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req RecipeRequest
	if !bind(c, &req) {
		return
	}
	user, _ := auth.CurrentUser(c)
	recipe, err := h.svc.Recipes.Update(c.Request.Context(), user, id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, recipeOut(recipe))
}

func (h *Handler) deleteRecipe(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	user, _ := auth.CurrentUser(c)
	if err := h.svc.Recipes.Delete(c.Request.Context(), user, id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

/*
	------------------------------------------------
	  收藏与购物车

------------------------------------------------
*/

type (
	addFunc    func(c *gin.Context, userID, recipeID uint) (*models.Recipe, error)
	removeFunc func(c *gin.Context, userID, recipeID uint) error
)

func (h *Handler) addRelation(add addFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := pathID(c)
		if !valid {
			return
		}
		recipe, err := add(c, auth.CurrentUserID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, http.StatusCreated, recipeShort(recipe))
	}
}

func (h *Handler) removeRelation(remove removeFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, valid := pathID(c)
		if !valid {
			return
		}
		if err := remove(c, auth.CurrentUserID(c), id); err != nil {
			respondError(c, err)
			return
		}
		noContent(c)
	}
}

func (h *Handler) addFavorite() gin.HandlerFunc {
	return h.addRelation(func(c *gin.Context, userID, recipeID uint) (*models.Recipe, error) {
		return h.svc.Recipes.AddFavorite(c.Request.Context(), userID, recipeID)
	})
}

func (h *Handler) removeFavorite() gin.HandlerFunc {
	return h.removeRelation(func(c *gin.Context, userID, recipeID uint) error {
		return h.svc.Recipes.RemoveFavorite(c.Request.Context(), userID, recipeID)
	})
}

func (h *Handler) addToCart() gin.HandlerFunc {
	return h.addRelation(func(c *gin.Context, userID, recipeID uint) (*models.Recipe, error) {
		return h.svc.Recipes.AddToCart(c.Request.Context(), userID, recipeID)
	})
}

func (h *Handler) removeFromCart() gin.HandlerFunc {
	return h.removeRelation(func(c *gin.Context, userID, recipeID uint) error {
		return h.svc.Recipes.RemoveFromCart(c.Request.Context(), userID, recipeID)
	})
}

// downloadShoppingCart 整个 PDF 生成完毕后才写响应
func (h *Handler) downloadShoppingCart(c *gin.Context) {
	pdf, err := h.reports.ShoppingList(c.Request.Context(), auth.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="shopping_cart.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
