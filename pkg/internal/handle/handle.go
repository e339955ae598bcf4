// Package handle 提供 serve 子命令的 HTTP 请求处理器.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/iolabel/pkg/context"
	"github.com/yeisme/iolabel/pkg/internal/service"
	"github.com/yeisme/iolabel/pkg/log"
)

// ErrorResponse 错误响应.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError 按错误类型选择状态码并记录日志.
func respondError(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNoIndex):
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		l := ctxPkg.WithTraceContext(c.Request.Context(), *log.Logger())
		l.Error().Err(err).Str("path", c.Request.URL.Path).Msg(msg)
	}

	_ = c.Error(err)
	c.JSON(status, ErrorResponse{Error: err.Error()})
}
