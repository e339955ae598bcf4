package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/iolabel/pkg/configs"
)

// CORSMiddleware 查询接口只读，只放行 GET/HEAD 和预检请求.
// Debug 模式或 cors_origins 含 "*" 时允许任意来源.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Accept", "If-None-Match"},
		ExposeHeaders: []string{"ETag", "X-Cache"},
		MaxAge:        12 * time.Hour,
	}

	if cfg.Debug || len(cfg.CORSOrigins) == 0 || slices.Contains(cfg.CORSOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.CORSOrigins
	}

	return cors.New(c)
}
