package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/studieren/foodgram_back/auth"
	"github.com/studieren/foodgram_back/metrics"
)

// RouterOptions 路由层配置
type RouterOptions struct {
	CORSOrigins  []string
	MediaRoot    string
	MediaURL     string
	LoginLimiter *auth.RateLimiter // nil 表示不限流
}

// NewRouter 注册全部路由，所有 API 路径都以 / 结尾
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	useJSONFieldNames()

	r := gin.New()
	r.Use(RequestID(), RequestLogger(), Recovery(), metrics.GinMiddleware(), cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if opts.MediaRoot != "" {
		r.Static(strings.TrimSuffix(opts.MediaURL, "/"), opts.MediaRoot)
	}

	api := r.Group("/api", auth.TokenAuth(h.tokens))
	requireAuth := auth.RequireAuth()
	requireAdmin := auth.RequireAdmin()

	// 1) 认证
	api.POST("/auth/token/login/", opts.LoginLimiter.Middleware(), h.login)
	api.POST("/auth/token/logout/", requireAuth, h.logout)

	// 2) 用户与关注
	users := api.Group("/users")
	users.GET("/", h.listUsers)
	users.POST("/", h.register)
	users.GET("/me/", requireAuth, h.me)
	users.POST("/set_password/", requireAuth, h.setPassword)
	users.GET("/subscriptions/", requireAuth, h.subscriptions)
	users.GET("/:id/", h.getUser)
	users.POST("/:id/subscribe/", requireAuth, h.subscribe)
	users.DELETE("/:id/subscribe/", requireAuth, h.unsubscribe)

	// 3) 标签、食材：公开读取，管理员维护
	tags := api.Group("/tags")
	tags.GET("/", h.listTags)
	tags.GET("/:id/", h.getTag)
	tags.POST("/", requireAdmin, h.createTag)
	tags.PATCH("/:id/", requireAdmin, h.updateTag)
	tags.DELETE("/:id/", requireAdmin, h.deleteTag)

	ingredients := api.Group("/ingredients")
	ingredients.GET("/", h.listIngredients)
	ingredients.GET("/:id/", h.getIngredient)
	ingredients.POST("/", requireAdmin, h.createIngredient)
	ingredients.PATCH("/:id/", requireAdmin, h.updateIngredient)
	ingredients.DELETE("/:id/", requireAdmin, h.deleteIngredient)

	// 4) 菜谱、收藏、购物车
	recipes := api.Group("/recipes")
	recipes.GET("/", h.listRecipes)
	recipes.POST("/", requireAuth, h.createRecipe)
	recipes.GET("/download_shopping_cart/", requireAuth, h.downloadShoppingCart)
	recipes.GET("/:id/", h.getRecipe)
	recipes.PATCH("/:id/", requireAuth, h.updateRecipe)
	recipes.DELETE("/:id/", requireAuth, h.deleteRecipe)
	recipes.POST("/:id/favorite/", requireAuth, h.addFavorite())
	recipes.DELETE("/:id/favorite/", requireAuth, h.removeFavorite())
	recipes.POST("/:id/shopping_cart/", requireAuth, h.addToCart())
	recipes.DELETE("/:id/shopping_cart/", requireAuth, h.removeFromCart())

	// 5) 运行状态
	api.GET("/stats/", requireAdmin, h.stats)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", requestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
