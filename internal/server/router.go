// Package server exposes the master price table and the inventory helper
// over HTTP.
package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// New wires the Gin engine with the inventory routes and middlewares.
func New(handler *InventoryHandler, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/inventory")
	api.POST("/master", handler.LoadMaster)
	api.GET("/master", handler.ShowMaster)
	api.GET("/helper", handler.State)
	api.POST("/helper/open", handler.Open)
	api.POST("/helper/fba", handler.RunFBA)
	api.POST("/helper/warehouse", handler.RunWarehouse)
	api.POST("/helper/apply", handler.Apply)
	api.POST("/helper/close", handler.Close)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
