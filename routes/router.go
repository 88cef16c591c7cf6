// Package routes wires the gateway's HTTP surface.
package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/solquest/config"
	"github.com/cppla/solquest/controllers"
	"github.com/cppla/solquest/middleware"
	"github.com/cppla/solquest/utils"
)

// Controllers bundles the gateway's handler sets.
type Controllers struct {
	Auth        *controllers.AuthController
	Tasks       *controllers.TasksController
	Leaderboard *controllers.LeaderboardController
	Play        *controllers.PlayController
}

// SetupRouter builds the gin engine with logging, CORS, rate limiting and the
// API route groups.
func SetupRouter(cfg config.AppConfig, logger *zap.Logger, c Controllers) *gin.Engine {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(middleware.PageViewRecorder())
	router.Use(utils.Ginzap(logger, time.RFC3339, true))
	router.Use(utils.RecoveryWithZap(utils.Logger, true))

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", c.Auth.Login)
			auth.GET("/modal", c.Auth.LoginModal)
			auth.GET("/me", middleware.JWTAuth(), c.Auth.Me)
			auth.POST("/disconnect", middleware.JWTAuth(), c.Auth.Disconnect)
		}

		views := api.Group("/views")
		{
			views.GET("/tasks", c.Tasks.List)
			views.GET("/leaderboard", c.Leaderboard.Page)
			views.GET("/leaderboard/full", c.Leaderboard.Full)
			views.GET("/status", c.Play.Status)
		}

		tasks := api.Group("/tasks", middleware.JWTAuth())
		{
			tasks.POST("/:id/complete", c.Tasks.Complete)
			tasks.GET("/attempts", c.Tasks.Attempts)
		}

		api.POST("/play", middleware.JWTAuth(), c.Play.Play)
		api.GET("/invite", middleware.JWTAuth(), c.Play.Invite)
		api.GET("/notices", c.Play.Notices)
	}

	router.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "resource not found")
	})

	return router
}
