package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"transfer-ledger/metrics"
)

func NewRouter(h *Handler, collector *metrics.Collector, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(collector.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/accounts", h.OpenAccount)
	v1.GET("/accounts/:accountId", h.GetAccount)
	v1.GET("/accounts/:accountId/events", h.GetHistory)
	v1.POST("/transfers", h.Transfer)
	v1.POST("/customers", h.RegisterCustomer)

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration", time.Since(start),
		}
		switch {
		case status >= 500:
			logger.Error("request failed", attrs...)
		case status >= 400:
			logger.Warn("request rejected", attrs...)
		default:
			logger.Info("request", attrs...)
		}
	}
}
