package queue

import (
	"time"

	"github.com/yeisme/iolabel/pkg/classify"
)

// EventHeader 定义所有事件的通用头部元数据.
type EventHeader struct {
	// Topic 冗余记录消息主题，便于离线处理或转储后定位来源主题.
	Topic string `json:"topic"`
	// TraceID 分布式追踪 ID.
	TraceID string `json:"trace_id,omitempty"`
	// Producer 生产者标识（命令名或节点名）.
	Producer string `json:"producer,omitempty"`
	// OccurredAt 事件发生时间（UTC，RFC3339）.
	OccurredAt time.Time `json:"occurred_at"`
	// Version 事件负载版本.
	Version string `json:"version,omitempty"`
}

// Message 是统一的消息封装，Header + Payload.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// LogClassifiedPayload 日志分类成功.
type LogClassifiedPayload struct {
	Result *classify.Result `json:"result"`
}

// LogFailedPayload 日志分类失败.
type LogFailedPayload struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

// IndexUpdatedPayload 一轮定时索引的统计.
type IndexUpdatedPayload struct {
	Patterns []string `json:"patterns"`
	Found    int      `json:"found"`
	Skipped  int      `json:"skipped"`
	Indexed  int      `json:"indexed"`
	Failed   int      `json:"failed"`
}
