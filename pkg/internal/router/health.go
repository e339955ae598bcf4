package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/iolabel/pkg/internal/handle"
)

// RegisterHealthCheckRoute 存活探针 /health 以及各存储的就绪检查.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	h := g.Group("/health")

	h.GET("", handle.Health)

	for path, fn := range map[string]gin.HandlerFunc{
		"/db": handle.HealthDB,
		"/kv": handle.HealthKV,
		"/s3": handle.HealthS3,
	} {
		h.GET(path, fn)
	}
}
