package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studieren/foodgram_back/auth"
	"github.com/studieren/foodgram_back/service"
)

/*
	------------------------------------------------
	  认证

------------------------------------------------
*/

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}
	key, err := h.svc.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"auth_token": key})
}

func (h *Handler) logout(c *gin.Context) {
	user, _ := auth.CurrentUser(c)
	if err := h.svc.Users.Logout(c.Request.Context(), user.ID); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}

/*
	------------------------------------------------
	  用户

------------------------------------------------
*/

func (h *Handler) listUsers(c *gin.Context) {
	users, page, err := h.svc.Users.List(c.Request.Context(), auth.CurrentUserID(c), h.pageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]UserOut, len(users))
	for i := range users {
		out[i] = userOut(&users[i])
	}
	paged(c, out, page)
}

func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}
	user, err := h.svc.Users.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, userOut(user))
}

func (h *Handler) me(c *gin.Context) {
	user, _ := auth.CurrentUser(c)
	ok(c, http.StatusOK, userOut(user))
}

func (h *Handler) getUser(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	user, err := h.svc.Users.Get(c.Request.Context(), auth.CurrentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, userOut(user))
}

func (h *Handler) setPassword(c *gin.Context) {
	var req SetPasswordRequest
	if !bind(c, &req) {
		return
	}
	user, _ := auth.CurrentUser(c)
	if err := h.svc.Users.SetPassword(c.Request.Context(), user, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"message": "密码已修改"})
}

/*
	------------------------------------------------
	  关注

------------------------------------------------
*/

func (h *Handler) subscriptions(c *gin.Context) {
	user, _ := auth.CurrentUser(c)
	subs, page, err := h.svc.Subscriptions.List(c.Request.Context(), user.ID, h.pageRequest(c), queryInt(c, "recipes_limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]SubscriptionOut, len(subs))
	for i := range subs {
		out[i] = subscriptionOut(&subs[i])
	}
	paged(c, out, page)
}

func (h *Handler) subscribe(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	user, _ := auth.CurrentUser(c)
	sub, err := h.svc.Subscriptions.Subscribe(c.Request.Context(), user.ID, id, queryInt(c, "recipes_limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusCreated, subscriptionOut(sub))
}

func (h *Handler) unsubscribe(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	user, _ := auth.CurrentUser(c)
	if err := h.svc.Subscriptions.Unsubscribe(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, err)
		return
	}
	noContent(c)
}
