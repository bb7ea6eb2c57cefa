package router

import (
	"github.com/gin-gonic/gin"
	"github.com/panchen451161722/daoaiagent/internal/handler"
	"github.com/panchen451161722/daoaiagent/internal/repository"
)

// Setup 注册路由; statusProvider 可以为 nil
func Setup(store repository.RecordStore, statusProvider handler.StatusProvider) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "daoaiagent-indexer",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		daoHandler := handler.NewDAOHandler(store)
		daos := v1.Group("/daos")
		{
			daos.GET("", daoHandler.GetDAOs)
			daos.GET("/stats", daoHandler.GetStats)
			daos.GET("/address/:address", daoHandler.GetDAOByAddress)
			daos.GET("/:id", daoHandler.GetDAO)
		}

		monitorHandler := handler.NewMonitorHandler(statusProvider)
		v1.GET("/monitor/status", monitorHandler.GetStatus)
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
