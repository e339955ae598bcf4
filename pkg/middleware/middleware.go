// Package middleware 提供 serve 子命令使用的 gin 中间件.
package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// GzipMiddleware 压缩 JSON 响应，/metrics 由 promhttp 自行协商压缩.
func GzipMiddleware(metricsPath string) gin.HandlerFunc {
	return gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{metricsPath}))
}
