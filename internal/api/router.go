package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/shuttle-analytics/internal/config"
	"github.com/jengzang/shuttle-analytics/internal/handler"
	"github.com/jengzang/shuttle-analytics/internal/metrics"
	"github.com/jengzang/shuttle-analytics/internal/middleware"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, logger *slog.Logger, svc handler.AnalysisService, mcol *metrics.Collector) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(logger))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Shuttle analytics API is running",
		})
	})

	if mcol != nil {
		r.GET("/metrics", gin.WrapH(mcol.Handler()))
	}

	analysisHandler := handler.NewAnalysisHandler(svc)

	// API 路由组
	api := r.Group("/api/v1", middleware.BearerAuth(cfg.JWTSecret))
	{
		// 分析视图
		views := api.Group("/analysis")
		{
			views.GET("", analysisHandler.ListViews)
			views.GET("/:name", analysisHandler.GetView)
		}

		// 数据集
		datasets := api.Group("/datasets")
		{
			datasets.GET("", analysisHandler.GetStatus)
			datasets.POST("/reload", middleware.RateLimit(cfg.ReloadLimitPerMinute, time.Minute), analysisHandler.Reload)
		}
	}

	return r
}
