package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/iolabel/pkg/configs"
	ctxPkg "github.com/yeisme/iolabel/pkg/context"
)

const timeout = 2 * time.Second

type pinger func(ctx context.Context) error

// health 统一的健康检查输出.
func health(c *gin.Context, component string, ping pinger) {
	if ping == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": component + " client not initialized"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	if err := ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"component": component, "status": "unhealthy", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"component": component, "status": "ok"})
}

// Health 存活探针，同时列出已初始化的存储，不访问后端.
//
//	@Summary	存活检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Router		/health [get]
func Health(c *gin.Context) {
	ctx := c.Request.Context()

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": configs.AppVersion,
		"components": gin.H{
			"db": ctxPkg.GetDBClient(ctx) != nil,
			"kv": ctxPkg.GetKVClient(ctx) != nil,
			"s3": ctxPkg.GetS3Client(ctx) != nil,
			"mq": ctxPkg.GetMQClient(ctx) != nil,
		},
	})
}

// HealthDB 索引数据库健康检查.
//
//	@Summary	数据库健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/health/db [get]
func HealthDB(c *gin.Context) {
	var ping pinger
	if dbc := ctxPkg.GetDBClient(c.Request.Context()); dbc != nil && dbc.DB != nil {
		ping = dbc.Ping
	}

	health(c, "db", ping)
}

// HealthKV KV 存储健康检查.
//
//	@Summary	KV 健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/health/kv [get]
func HealthKV(c *gin.Context) {
	var ping pinger
	if kvc := ctxPkg.GetKVClient(c.Request.Context()); kvc != nil && kvc.KVStore != nil {
		ping = kvc.Ping
	}

	health(c, "kv", ping)
}

// HealthS3 对象存储健康检查.
//
//	@Summary	对象存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/health/s3 [get]
func HealthS3(c *gin.Context) {
	var ping pinger
	if s3c := ctxPkg.GetS3Client(c.Request.Context()); s3c != nil && s3c.Client != nil {
		ping = s3c.HealthCheck
	}

	health(c, "s3", ping)
}
