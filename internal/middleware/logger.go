package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/user/phimhub/internal/logger"
	"github.com/user/phimhub/internal/metrics"
)

// Logger 请求日志中间件，同时记录 Prometheus 指标
func Logger() gin.HandlerFunc {
	log := logger.New("HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		// 指标按路由模板聚合，避免 slug 造成标签爆炸
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, route, status, latency)

		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    path,
			"ip":      c.ClientIP(),
			"status":  status,
			"latency": latency.String(),
		})
		switch {
		case status >= 500:
			entry.Error("[HTTP] 请求失败")
		case status >= 400:
			entry.Warn("[HTTP] 请求异常")
		default:
			entry.Info("[HTTP] 请求完成")
		}
	}
}
