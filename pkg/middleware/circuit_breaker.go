package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/internal/breaker"
)

var errServerStatus = errors.New("server error status")

// CircuitBreakerMiddleware 5xx 比例过高时熔断，期间直接返回 503.
func CircuitBreakerMiddleware(cfg configs.CircuitBreakerConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}

	cb := breaker.New("http", cfg)

	return func(c *gin.Context) {
		err := cb.Execute(func() error {
			c.Next()

			if c.Writer.Status() >= http.StatusInternalServerError {
				return errServerStatus
			}

			return nil
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
		}
	}
}
