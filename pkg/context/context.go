// Package context 在请求上下文中携带存储管理器，并为日志补充追踪字段.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/iolabel/pkg/internal/storage"
	dbc "github.com/yeisme/iolabel/pkg/internal/storage/db"
	kvc "github.com/yeisme/iolabel/pkg/internal/storage/kv"
	mqc "github.com/yeisme/iolabel/pkg/internal/storage/mq"
	s3c "github.com/yeisme/iolabel/pkg/internal/storage/s3"
)

type managerKey struct{}

// WithStorageManager 返回携带 mgr 的子上下文.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, managerKey{}, mgr)
}

// GetManager 取出存储管理器，未设置时返回 nil.
func GetManager(ctx context.Context) *storage.Manager {
	mgr, _ := ctx.Value(managerKey{}).(*storage.Manager)
	return mgr
}

// fromManager 管理器缺失时返回零值.
func fromManager[T any](ctx context.Context, get func(*storage.Manager) T) T {
	var zero T

	mgr := GetManager(ctx)
	if mgr == nil {
		return zero
	}

	return get(mgr)
}

// GetDBClient 索引数据库客户端.
func GetDBClient(ctx context.Context) *dbc.Client {
	return fromManager(ctx, (*storage.Manager).GetDBClient)
}

// GetKVClient 结果缓存使用的 KV 客户端.
func GetKVClient(ctx context.Context) *kvc.Client {
	return fromManager(ctx, (*storage.Manager).GetKVClient)
}

// GetS3Client 对象存储客户端.
func GetS3Client(ctx context.Context) *s3c.Client {
	return fromManager(ctx, (*storage.Manager).GetS3Client)
}

// GetMQClient 事件发布使用的消息队列客户端.
func GetMQClient(ctx context.Context) *mqc.Client {
	return fromManager(ctx, (*storage.Manager).GetMQClient)
}

// WithTraceContext 当 ctx 中有有效的 span 时，给 logger 附加 trace_id 和 span_id.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return logger
	}

	return logger.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
}
