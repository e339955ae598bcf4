// Package queue 定义分类事件的信封、主题和负载. classify 与 watch 发布，下游按主题订阅.
//
// 每条消息的 payload 是一个 JSON 信封，header 里的 occurred_at 为 UTC：
//
//	{
//	  "header": {"topic": "iolabel.log.classified", "producer": "iolabel", "occurred_at": "...", "version": "v1", "trace_id": "..."},
//	  "payload": {"result": {...}}
//	}
//
// 消息 ID 是单调 ULID，同一毫秒内也保持有序. 消费者应忽略未知字段，并可按 result.md5 去重.
//
//	ch, _ := client.Subscribe(ctx, queue.TopicLogClassified)
//	for m := range ch {
//		env, err := queue.ParseLogClassified(m)
//		...
//		m.Ack()
//	}
package queue

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/oklog/ulid"
	"go.opentelemetry.io/otel/trace"
)

// PayloadVersionV1 当前信封版本.
const PayloadVersionV1 = "v1"

// HeaderOption 修改事件头.
type HeaderOption = func(*EventHeader)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewEventHeader occurred_at 取当前 UTC 时间.
func NewEventHeader(topic string, opts ...HeaderOption) EventHeader {
	h := EventHeader{Topic: topic, OccurredAt: time.Now().UTC(), Version: PayloadVersionV1}
	for _, opt := range opts {
		opt(&h)
	}

	return h
}

func WithTraceID(id string) HeaderOption { return func(h *EventHeader) { h.TraceID = id } }

func WithProducer(p string) HeaderOption { return func(h *EventHeader) { h.Producer = p } }

// WithTraceFrom 从 ctx 中的 span 取 trace_id，没有时保持为空.
func WithTraceFrom(ctx context.Context) HeaderOption {
	return func(h *EventHeader) {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			h.TraceID = sc.TraceID().String()
		}
	}
}

func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]
	if err := sonic.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode envelope: %w", err)
	}

	return m, nil
}

// NewMessageID 单调 ULID，并发安全.
func NewMessageID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// NewWatermillMessage 编码信封，并把 header 中非空的字段复制到消息元数据，便于不解码 payload 就能路由.
func NewWatermillMessage[T any](topic string, payload T, opts ...HeaderOption) (*message.Message, error) {
	h := NewEventHeader(topic, opts...)

	data, err := Encode(Message[T]{Header: h, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", topic, err)
	}

	msg := message.NewMessage(NewMessageID(h.OccurredAt), data)

	for k, v := range map[string]string{
		"topic":       h.Topic,
		"producer":    h.Producer,
		"trace_id":    h.TraceID,
		"version":     h.Version,
		"occurred_at": h.OccurredAt.Format(time.RFC3339Nano),
	} {
		if v != "" {
			msg.Metadata.Set(k, v)
		}
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}
