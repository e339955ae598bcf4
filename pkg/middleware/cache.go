package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/iolabel/pkg/cache"
	"github.com/yeisme/iolabel/pkg/log"
)

const (
	// BypassHeader 请求带该头时跳过响应缓存.
	BypassHeader = "X-Cache-Bypass"
	// maxCachedBody 超过该大小的响应不缓存.
	maxCachedBody = 1 << 20
)

// cachedResponse 缓存在 KV 中的响应.
type cachedResponse struct {
	Status      int    `json:"s"`
	ContentType string `json:"c"`
	Body        []byte `json:"b"`
	ETag        string `json:"e"`
	StoredAt    int64  `json:"t"`
}

// responseKey 由路由模板和排序后的 query 生成.
func responseKey(c *gin.Context) string {
	var b strings.Builder

	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}

	b.WriteString(route)

	// 路径参数参与键，例如 /classifications/:md5
	for _, p := range c.Params {
		b.WriteByte('|')
		b.WriteString(p.Key)
		b.WriteByte('=')
		b.WriteString(p.Value)
	}

	q := c.Request.URL.Query()
	keys := make([]string, 0, len(q))

	for k := range q {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		b.WriteByte('&')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strings.Join(q[k], ","))
	}

	return strconv.FormatUint(xxhash.Sum64String(b.String()), 16)
}

// captureWriter 复制响应体，超过 maxCachedBody 后放弃缓存.
type captureWriter struct {
	gin.ResponseWriter

	buf      bytes.Buffer
	overflow bool
}

func (w *captureWriter) Write(b []byte) (int, error) {
	if !w.overflow {
		if w.buf.Len()+len(b) > maxCachedBody {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(b)
		}
	}

	return w.ResponseWriter.Write(b)
}

// ResponseCacheMiddleware 在 KV 中缓存 GET 请求的 200 响应，支持 ETag/If-None-Match.
// 索引只在 classify --store 或 watch 时变化，短 TTL 即可.
func ResponseCacheMiddleware(c *appcache.Cache, ttl time.Duration) gin.HandlerFunc {
	if c == nil || ttl <= 0 {
		return func(ctx *gin.Context) { ctx.Next() }
	}

	return func(ctx *gin.Context) {
		if ctx.Request.Method != http.MethodGet || ctx.GetHeader(BypassHeader) != "" {
			ctx.Next()
			return
		}

		key := c.Key(responseKey(ctx))

		if entry, err := appcache.Get[cachedResponse](ctx.Request.Context(), c, key); err == nil {
			serveCached(ctx, entry)
			return
		}

		w := &captureWriter{ResponseWriter: ctx.Writer}
		ctx.Writer = w

		ctx.Next()

		if ctx.Writer.Status() != http.StatusOK || w.overflow {
			return
		}

		body := w.buf.Bytes()
		entry := cachedResponse{
			Status:      http.StatusOK,
			ContentType: ctx.Writer.Header().Get("Content-Type"),
			Body:        body,
			ETag:        fmt.Sprintf("%q", strconv.FormatUint(xxhash.Sum64(body), 16)),
			StoredAt:    time.Now().Unix(),
		}

		if err := appcache.Set(ctx.Request.Context(), c, key, entry, ttl); err != nil {
			log.Logger().Warn().Err(err).Str("path", ctx.Request.URL.Path).Msg("failed to cache response")
		}
	}
}

func serveCached(ctx *gin.Context, entry cachedResponse) {
	h := ctx.Writer.Header()
	h.Set("ETag", entry.ETag)
	h.Set("X-Cache", "HIT")
	h.Set("Age", strconv.FormatInt(max(time.Now().Unix()-entry.StoredAt, 0), 10))

	if ctx.GetHeader("If-None-Match") == entry.ETag {
		ctx.AbortWithStatus(http.StatusNotModified)
		return
	}

	ctx.Data(entry.Status, entry.ContentType, entry.Body)
	ctx.Abort()
}
