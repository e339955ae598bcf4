package middleware

import (
	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/iolabel/pkg/context"
	"github.com/yeisme/iolabel/pkg/internal/storage"
)

// StorageMiddleware 让处理器通过 pkg/context 拿到存储客户端. manager 为 nil 时不做任何事.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	if manager == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxPkg.WithStorageManager(c.Request.Context(), manager))
		c.Next()
	}
}
