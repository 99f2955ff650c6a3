package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/allthebeans-backend/internal/handlers"
	"github.com/yungbote/allthebeans-backend/internal/middleware"
)

type RouterConfig struct {
	BeanHandler *handlers.BeanHandler
	RateLimiter *middleware.ConcurrencyLimiter
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("allthebeans"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	beans := router.Group("/beans")
	if cfg.RateLimiter != nil {
		beans.Use(cfg.RateLimiter.Limit())
	}
	{
		beans.GET("", cfg.BeanHandler.GetAll)
		// Static route must be registered alongside the :id parameter route.
		beans.GET("/of-the-day", cfg.BeanHandler.GetOfTheDay)
		beans.GET("/:id", cfg.BeanHandler.GetByID)
		beans.POST("", cfg.BeanHandler.Create)
		beans.PUT("/:id", cfg.BeanHandler.CreateOrUpdate)
		beans.PATCH("/:id", cfg.BeanHandler.Patch)
		beans.DELETE("/:id", cfg.BeanHandler.Delete)
	}

	return router
}
