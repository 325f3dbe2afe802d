package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"compare-service/backend/internal/httpapi/handlers"
	"compare-service/backend/internal/httpapi/middleware"
	"compare-service/backend/internal/metrics"
)

type RouterOptions struct {
	// 通过网关访问时网关已经加了 CORS，这里默认关闭，直连调试时再打开
	EnableCORS bool
}

func NewRouter(h *handlers.CompareHandler, opt RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(metrics.Handler())

	if opt.EnableCORS {
		router.Use(cors.New(cors.Config{
			AllowOriginFunc: func(origin string) bool { return true },
			AllowMethods:    []string{"GET", "HEAD", "OPTIONS"},
			AllowHeaders:    []string{"Origin", "Accept", "If-None-Match", middleware.HeaderRequestID},
			ExposeHeaders:   []string{"Content-Length", "ETag", middleware.HeaderRequestID},
			MaxAge:          12 * time.Hour,
		}))
	}

	router.GET("/healthz", handlers.Health())
	router.GET("/metrics", metrics.Exposer())

	router.GET("/compare", h.Page())
	v1 := router.Group("/v1")
	{
		v1.GET("/compare", h.API())
	}
	return router
}
