package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/iolabel/pkg/cache"
	"github.com/yeisme/iolabel/pkg/configs"
	ctxPkg "github.com/yeisme/iolabel/pkg/context"
	"github.com/yeisme/iolabel/pkg/internal/storage"
	"github.com/yeisme/iolabel/pkg/internal/storage/kv"
	"github.com/yeisme/iolabel/pkg/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(e *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)

	return w
}

func get(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}

func TestRateLimitMiddleware(t *testing.T) {
	e := gin.New()
	e.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}))
	e.GET("/stats", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(e, get("/stats")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(e, get("/stats")).Code)

	other := get("/stats")
	other.RemoteAddr = "10.0.0.2:4000"
	assert.Equal(t, http.StatusOK, serve(e, other).Code)
}

func TestRateLimitDisabled(t *testing.T) {
	e := gin.New()
	e.Use(middleware.RateLimitMiddleware(configs.RateLimitConfig{Enabled: false, RPS: 0.001, Burst: 1}))
	e.GET("/stats", func(c *gin.Context) { c.Status(http.StatusOK) })

	for range 3 {
		assert.Equal(t, http.StatusOK, serve(e, get("/stats")).Code)
	}
}

func TestResponseCacheMiddleware(t *testing.T) {
	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, configs.KVConfig{})
	require.NoError(t, err)

	calls := 0

	e := gin.New()
	e.Use(middleware.ResponseCacheMiddleware(cache.NewCache(store, "test:http"), time.Minute))
	e.GET("/classifications/:md5", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"md5": c.Param("md5")})
	})
	e.GET("/missing", func(c *gin.Context) {
		calls++
		c.Status(http.StatusNotFound)
	})

	first := serve(e, get("/classifications/abc"))
	require.Equal(t, http.StatusOK, first.Code)
	assert.Empty(t, first.Header().Get("X-Cache"))

	second := serve(e, get("/classifications/abc"))
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	etag := second.Header().Get("ETag")
	require.NotEmpty(t, etag)

	conditional := get("/classifications/abc")
	conditional.Header.Set("If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, serve(e, conditional).Code)

	bypass := get("/classifications/abc")
	bypass.Header.Set(middleware.BypassHeader, "1")
	assert.Empty(t, serve(e, bypass).Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)

	// 不同路径参数使用不同的键
	serve(e, get("/classifications/def"))
	assert.Equal(t, 3, calls)

	// 非 200 响应不缓存
	serve(e, get("/missing"))
	serve(e, get("/missing"))
	assert.Equal(t, 5, calls)
}

func TestCORSMiddleware(t *testing.T) {
	e := gin.New()
	e.Use(middleware.CORSMiddleware(configs.ServerConfig{CORSOrigins: []string{"https://dash.example.org"}}))
	e.GET("/stats", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := get("/stats")
	req.Header.Set("Origin", "https://dash.example.org")
	w := serve(e, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://dash.example.org", w.Header().Get("Access-Control-Allow-Origin"))

	req = get("/stats")
	req.Header.Set("Origin", "https://evil.example.com")
	assert.Equal(t, http.StatusForbidden, serve(e, req).Code)

	preflight := httptest.NewRequest(http.MethodOptions, "/stats", nil)
	preflight.Header.Set("Origin", "https://dash.example.org")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w = serve(e, preflight)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
}

func TestStorageMiddleware(t *testing.T) {
	mgr := &storage.Manager{}

	var seen *storage.Manager

	e := gin.New()
	e.Use(middleware.StorageMiddleware(mgr))
	e.GET("/", func(c *gin.Context) {
		seen = ctxPkg.GetManager(c.Request.Context())
		c.Status(http.StatusOK)
	})

	serve(e, get("/"))
	assert.Same(t, mgr, seen)
}

func TestCircuitBreakerMiddleware(t *testing.T) {
	cfg := configs.CircuitBreakerConfig{
		Enabled:           true,
		FailureRate:       0.5,
		MinRequests:       2,
		Timeout:           time.Minute,
		MaxRequestsInHalf: 1,
	}

	calls := 0

	e := gin.New()
	e.Use(middleware.CircuitBreakerMiddleware(cfg))
	e.GET("/stats", func(c *gin.Context) {
		calls++
		c.Status(http.StatusInternalServerError)
	})

	assert.Equal(t, http.StatusInternalServerError, serve(e, get("/stats")).Code)
	assert.Equal(t, http.StatusInternalServerError, serve(e, get("/stats")).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(e, get("/stats")).Code)
	assert.Equal(t, 2, calls)
}
