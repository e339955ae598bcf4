package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/iolabel/pkg/configs"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	maxLimiterEntries      = 10000
)

// RateLimitMiddleware 按客户端 IP 限流.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	var (
		mu          sync.Mutex
		limiters    = map[string]*rate.Limiter{}
		lastCleanup = time.Now()
	)

	get := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		// 不跟踪访问时间，表过大时整体重置
		if time.Since(lastCleanup) > limiterCleanupInterval && len(limiters) > maxLimiterEntries {
			limiters = map[string]*rate.Limiter{}
			lastCleanup = time.Now()
		}

		l, ok := limiters[key]
		if !ok {
			l = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
			limiters[key] = l
		}

		return l
	}

	return func(c *gin.Context) {
		key := c.ClientIP()
		if key == "" {
			key = "unknown"
		}

		if !get(key).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		c.Next()
	}
}
