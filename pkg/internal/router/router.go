// Package router 把处理器绑定到 gin 引擎.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/iolabel/pkg/internal/handle"
	"github.com/yeisme/iolabel/pkg/metrics"
)

// RegisterIndexRoutes 注册索引查询路由（只读）:
//
//	GET /classifications       -> ListClassifications
//	GET /classifications/:md5  -> GetClassification
//	GET /stats                 -> GetStats
func RegisterIndexRoutes(g *gin.RouterGroup) {
	classifications := g.Group("/classifications")
	{
		classifications.GET("", handle.ListClassifications)
		classifications.GET("/:md5", handle.GetClassification)
	}

	g.GET("/stats", handle.GetStats)
}

// RegisterMetricsRoute 暴露 Prometheus 指标.
func RegisterMetricsRoute(r *gin.Engine, path string) {
	r.GET(path, gin.WrapH(metrics.Handler()))
}

// peerBasePath groupcache HTTPPool 的默认路径.
const peerBasePath = "/_groupcache/"

// RegisterPeerRoute 暴露 groupcache 节点间的通信接口，h 为 nil 时不注册.
func RegisterPeerRoute(r *gin.Engine, h http.Handler) {
	if h == nil {
		return
	}

	r.Any(peerBasePath+"*key", gin.WrapH(h))
}
