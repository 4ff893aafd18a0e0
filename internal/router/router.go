package router

import (
	"github.com/gin-gonic/gin"
	"github.com/user/phimhub/internal/handler"
	"github.com/user/phimhub/internal/metrics"
	"github.com/user/phimhub/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查与指标
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	secret := h.Config.AppSecret
	api := r.Group("/api")

	// ==================== 影片目录（公开）====================
	movies := api.Group("/movies")
	{
		movies.GET("/new", h.ListNew)
		movies.GET("/search", h.SearchMovies)
		movies.GET("/stats", h.MovieStats)
		movies.GET("/:slug", h.MovieDetail)
		movies.GET("/:slug/comments", h.ListComments)
		movies.POST("/:slug/comments", middleware.RequireAuth(secret), h.CreateComment)
	}
	api.DELETE("/comments/:id", middleware.RequireAuth(secret), h.DeleteComment)

	// ==================== 用户数据（需要登录）====================
	me := api.Group("/me")
	me.Use(middleware.RequireAuth(secret))
	{
		me.GET("/favorites", h.ListFavorites)
		me.POST("/favorites/:slug", h.AddFavorite)
		me.DELETE("/favorites/:slug", h.RemoveFavorite)

		me.GET("/watchlist", h.ListWatchlist)
		me.POST("/watchlist/:slug", h.AddWatchlist)
		me.DELETE("/watchlist/:slug", h.RemoveWatchlist)

		me.GET("/history", h.ListHistory)
		me.POST("/history", h.SaveHistory)
		me.POST("/history/sync", h.SyncHistory)
		me.DELETE("/history/:id", h.RemoveHistory)
	}

	// ==================== 管理后台 ====================
	admin := api.Group("/admin")
	admin.Use(middleware.RequireAuth(secret), middleware.RequireAdmin())
	{
		admin.POST("/sync/full", h.AdminSyncFull)
		admin.POST("/sync/incremental", h.AdminSyncIncremental)
		admin.GET("/sync/status", h.AdminSyncStatus)
	}
}
