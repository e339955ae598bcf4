// Package api 定义对外 HTTP 接口的版本前缀与路由组.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/iolabel/pkg/internal/router"
)

// BasePath 当前接口版本前缀.
const BasePath = "/api/v1"

// RegisterGroup 在 e 上注册 /api/v1 路由组及索引查询路由，middlewares 只作用于该组.
func RegisterGroup(e *gin.Engine, middlewares ...gin.HandlerFunc) *gin.RouterGroup {
	g := e.Group(BasePath, middlewares...)
	router.RegisterIndexRoutes(g)

	return g
}
