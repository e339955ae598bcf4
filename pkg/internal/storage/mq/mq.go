// Package mq 提供基于 Watermill 库的统一消息队列操作接口。
// 支持发布/订阅模式，并通过工厂模式抽象不同的 MQ 实现。
//
// 支持的 MQ 类型：
//   - NATS（可选 JetStream）
//   - Redis Pub/Sub
//   - gochannel（进程内）
//
// 使用示例：
//
//	import "github.com/yeisme/iolabel/pkg/internal/storage/mq"
//
//	client, err := mq.New(ctx, configs.GetConfig().MQ, false)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	// 发布消息
//	msg := message.NewMessage(watermill.NewUUID(), []byte("hello world"))
//	err = client.Publish(ctx, "topic", msg)
//
//	// 订阅主题
//	ch, err := client.Subscribe(ctx, "topic")
//	for m := range ch {
//		fmt.Println(string(m.Payload))
//		m.Ack()
//	}
package mq

import (
	"context"
	"errors"
	"fmt"
	"sort"

	watermill "github.com/ThreeDotsLabs/watermill"
	wmetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/yeisme/iolabel/pkg/configs"
	nlog "github.com/yeisme/iolabel/pkg/log"
	"github.com/yeisme/iolabel/pkg/metrics"
)

// metricsNamespace watermill 指标的命名空间.
const metricsNamespace = "iolabel"

// Factory 定义创建 Publisher + Subscriber 的工厂函数.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var factories = map[configs.MQType]Factory{}

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// GetRegisteredMQTypes 返回已注册的 MQ 类型列表（排序后）.
func GetRegisteredMQTypes() []configs.MQType {
	types := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	publisher  message.Publisher
	subscriber message.Subscriber
}

// New 按配置创建消息队列客户端. withMetrics 时发布与订阅计入 Prometheus 注册表.
func New(ctx context.Context, cfg configs.MQConfig, withMetrics bool) (*Client, error) {
	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	logger := NewLoggerAdapter(nlog.Logger())

	pub, sub, err := factory(ctx, &cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	if withMetrics {
		builder := wmetrics.NewPrometheusMetricsBuilder(metrics.GetRegistry(), metricsNamespace, "mq")

		if pub, err = builder.DecoratePublisher(pub); err != nil {
			return nil, errors.Join(fmt.Errorf("decorate publisher with metrics: %w", err), sub.Close())
		}

		if sub, err = builder.DecorateSubscriber(sub); err != nil {
			return nil, errors.Join(fmt.Errorf("decorate subscriber with metrics: %w", err), pub.Close())
		}
	}

	nlog.Logger().Debug().Str("type", string(cfg.Type)).Bool("metrics", withMetrics).Msg("mq client initialized")

	return &Client{publisher: pub, subscriber: sub}, nil
}

// Publisher 返回底层 Publisher，供 queue 包的事件函数使用.
func (c *Client) Publisher() message.Publisher {
	return c.publisher
}

// Publish 便捷发布.
func (c *Client) Publish(_ context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return errors.New("mq publisher not initialized")
	}

	return c.publisher.Publish(topic, msgs...)
}

// Subscribe 便捷订阅，ctx 取消后通道关闭.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, errors.New("mq subscriber not initialized")
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// Close 关闭资源. 发布与订阅共用一个实现时（gochannel）只关闭一次.
func (c *Client) Close() error {
	var errs []error

	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}

	if c.subscriber != nil && any(c.subscriber) != any(c.publisher) {
		errs = append(errs, c.subscriber.Close())
	}

	return errors.Join(errs...)
}
