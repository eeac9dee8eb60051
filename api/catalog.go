package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studieren/foodgram_back/service"
)

// 标签与食材不分页

func (h *Handler) listTags(c *gin.Context) {
	tags, err := h.svc.Tags.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, tagsOut(tags))
}

func (h *Handler) getTag(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	tag, err := h.svc.Tags.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, tagOut(tag))
}

func (h *Handler) createTag(c *gin.Context) {
	var req TagRequest
	if !bind(c, &req) {
		return
	}
	tag, err := h.svc.Tags.Create(c.Request.Context(), service.TagInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, tagOut(tag))
}

func (h *Handler) updateTag(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req TagRequest
	if !bind(c, &req) {
		return
	}
	tag, err := h.svc.Tags.Update(c.Request.Context(), id, service.TagInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, tagOut(tag))
}

func (h *Handler) deleteTag(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.svc.Tags.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

func (h *Handler) listIngredients(c *gin.Context) {
	list, err := h.svc.Ingredients.List(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, ingredientsOut(list))
}

func (h *Handler) getIngredient(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	ing, err := h.svc.Ingredients.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, ingredientOut(ing))
}

func (h *Handler) createIngredient(c *gin.Context) {
	var req IngredientRequest
	if !bind(c, &req) {
		return
	}
	ing, err := h.svc.Ingredients.Create(c.Request.Context(), service.IngredientInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, ingredientOut(ing))
}

func (h *Handler) updateIngredient(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req IngredientRequest
	if !bind(c, &req) {
		return
	}
	ing, err := h.svc.Ingredients.Update(c.Request.Context(), id, service.IngredientInput(req))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, ingredientOut(ing))
}

func (h *Handler) deleteIngredient(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.svc.Ingredients.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

// stats 连接池、Redis、断路器状态以及收藏最多的菜谱
func (h *Handler) stats(c *gin.Context) {
	top, err := h.svc.Recipes.TopFavorited(c.Request.Context(), queryInt(c, "top", 10))
	if err != nil {
		respondError(c, err)
		return
	}
	stats := h.tool.Stats(c.Request.Context())
	stats["top_favorited"] = top
	ok(c, http.StatusOK, stats)
}
