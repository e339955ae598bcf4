// Package app 组装 serve 子命令的 gin 引擎：中间件、路由和存储.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/iolabel/pkg/api"
	"github.com/yeisme/iolabel/pkg/cache"
	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/internal/router"
	"github.com/yeisme/iolabel/pkg/internal/storage"
	"github.com/yeisme/iolabel/pkg/log"
	"github.com/yeisme/iolabel/pkg/middleware"
)

const (
	responseCachePrefix = "iolabel:http"
	shutdownTimeout     = 10 * time.Second
)

// peerHandler 分布式 KV（groupcache）节点间通信.
type peerHandler interface {
	PeerHandler() http.Handler
}

// App HTTP 服务.
type App struct {
	Engine *gin.Engine
	config *configs.AppConfig
}

// NewApp 创建 gin 引擎并注册中间件和路由. manager 中未初始化的存储对应的接口返回 503.
func NewApp(config *configs.AppConfig, manager *storage.Manager) *App {
	engine := gin.New()

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(config.Server),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.RateLimitMiddleware(config.Server.RateLimit),
		middleware.CircuitBreakerMiddleware(config.CircuitBreaker),
		middleware.StorageMiddleware(manager),
	)

	router.RegisterHealthCheckRoute(&engine.RouterGroup)

	if config.Metrics.Enabled {
		router.RegisterMetricsRoute(engine, config.Metrics.Path)
	}

	router.RegisterSwaggerRoute(engine, config.Server)

	if manager != nil && manager.KV != nil {
		if p, ok := manager.KV.KVStore.(peerHandler); ok {
			router.RegisterPeerRoute(engine, p.PeerHandler())
		}
	}

	groupMiddlewares := []gin.HandlerFunc{middleware.GzipMiddleware(config.Metrics.Path)}
	if manager != nil && manager.KV != nil {
		groupMiddlewares = append(groupMiddlewares,
			middleware.ResponseCacheMiddleware(cache.NewCache(manager.KV, responseCachePrefix), config.Server.ResponseTTL))
	}

	api.RegisterGroup(engine, groupMiddlewares...)

	return &App{
		Engine: engine,
		config: config,
	}
}

// Run 监听配置的地址，ctx 取消后优雅退出.
func (a *App) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
		WriteTimeout:      a.config.Server.GetTimeoutDuration(),
	}

	errCh := make(chan error, 1)

	go func() {
		log.Logger().Info().Str("addr", addr).Msg("HTTP server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Logger().Info().Msg("shutting down HTTP server")

	return srv.Shutdown(shutdownCtx)
}
