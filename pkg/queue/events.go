package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/iolabel/pkg/batch"
)

// -------------------------- 基于业务封装 events --------------------------

// publish 构造消息并发布到 topic.
func publish[T any](pub message.Publisher, topic string, payload T, opts ...HeaderOption) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", topic, err)
	}

	return pub.Publish(topic, msg)
}

// PublishLogClassified 发布 iolabel.log.classified 事件.
func PublishLogClassified(pub message.Publisher, payload LogClassifiedPayload, opts ...HeaderOption) error {
	return publish(pub, TopicLogClassified, payload, opts...)
}

// PublishLogFailed 发布 iolabel.log.failed 事件.
func PublishLogFailed(pub message.Publisher, payload LogFailedPayload, opts ...HeaderOption) error {
	return publish(pub, TopicLogFailed, payload, opts...)
}

// PublishIndexUpdated 发布 iolabel.index.updated 事件.
func PublishIndexUpdated(pub message.Publisher, payload IndexUpdatedPayload, opts ...HeaderOption) error {
	return publish(pub, TopicIndexUpdated, payload, opts...)
}

// PublishReport 为批量分类的每个结果与失败各发布一条事件. 单条发布失败不影响其余事件，错误汇总返回.
func PublishReport(ctx context.Context, pub message.Publisher, report *batch.Report, opts ...HeaderOption) error {
	opts = append([]HeaderOption{WithTraceFrom(ctx)}, opts...)

	var errs []error

	for _, res := range report.Results {
		errs = append(errs, PublishLogClassified(pub, LogClassifiedPayload{Result: res}, opts...))
	}

	for _, f := range report.Failures {
		payload := LogFailedPayload{Path: f.Path, Reason: f.Reason}
		if f.Err != nil {
			payload.Error = f.Err.Error()
		}

		errs = append(errs, PublishLogFailed(pub, payload, opts...))
	}

	return errors.Join(errs...)
}

// ParseLogClassified 将 Watermill 消息解析为强类型 Envelope.
func ParseLogClassified(msg *message.Message) (Message[LogClassifiedPayload], error) {
	return ParseWatermillMessage[LogClassifiedPayload](msg)
}

// ParseLogFailed 将 Watermill 消息解析为强类型 Envelope.
func ParseLogFailed(msg *message.Message) (Message[LogFailedPayload], error) {
	return ParseWatermillMessage[LogFailedPayload](msg)
}

// ParseIndexUpdated 将 Watermill 消息解析为强类型 Envelope.
func ParseIndexUpdated(msg *message.Message) (Message[IndexUpdatedPayload], error) {
	return ParseWatermillMessage[IndexUpdatedPayload](msg)
}

// filteredPublisher 丢弃 allow 返回 false 的主题.
type filteredPublisher struct {
	message.Publisher
	allow func(topic string) bool
}

func (p filteredPublisher) Publish(topic string, msgs ...*message.Message) error {
	if !p.allow(topic) {
		return nil
	}

	return p.Publisher.Publish(topic, msgs...)
}

// NewFilteredPublisher 按主题过滤发布，allow 为 nil 时原样返回 pub.
func NewFilteredPublisher(pub message.Publisher, allow func(topic string) bool) message.Publisher {
	if allow == nil {
		return pub
	}

	return filteredPublisher{Publisher: pub, allow: allow}
}
