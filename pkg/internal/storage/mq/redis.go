package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/iolabel/pkg/configs"
)

const (
	// DefaultChannelBufferSize 默认通道缓冲区大小.
	DefaultChannelBufferSize = 100
	// uuidMetadataKey 在 Redis Pub/Sub 中携带 watermill 消息 ID 与元数据.
	uuidMetadataKey = "_uuid"
)

// RedisPublisher Redis Pub/Sub Publisher 实现. 消息以 JSON 信封发布，保留 UUID 与元数据.
type RedisPublisher struct {
	client *redis.Client
	closed bool
	mu     sync.Mutex
}

// RedisSubscriber Redis Pub/Sub Subscriber 实现. Pub/Sub 没有持久化，Ack/Nack 不影响投递.
type RedisSubscriber struct {
	client  *redis.Client
	logger  watermill.LoggerAdapter
	subs    []*redis.PubSub
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
}

// redisEnvelope Redis 上传输的消息格式.
type redisEnvelope struct {
	Metadata map[string]string `json:"metadata"`
	Payload  []byte            `json:"payload"`
}

// init 注册 Redis 工厂.
func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

// redisFactory 创建 Redis Publisher & Subscriber，两者使用独立连接.
func redisFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	newClient := func() *redis.Client {
		return redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	pubClient := newClient()

	// 测试连接
	if err := pubClient.Ping(ctx).Err(); err != nil {
		_ = pubClient.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisPublisher{client: pubClient}, &RedisSubscriber{
		client:  newClient(),
		logger:  logger,
		closeCh: make(chan struct{}),
	}, nil
}

// Publish 实现 Publisher 接口.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if closed {
		return errors.New("redis publisher closed")
	}

	for _, msg := range msgs {
		data, err := marshalRedisMessage(msg)
		if err != nil {
			return err
		}

		if err := p.client.Publish(context.Background(), topic, data).Err(); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
	}

	return nil
}

// Close 实现 Publisher 接口.
func (p *RedisPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true

	return p.client.Close()
}

// Subscribe 实现 Subscriber 接口. 每次订阅使用独立的 PubSub 连接.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("redis subscriber closed")
	}

	ps := s.client.Subscribe(ctx, topic)
	// 等待订阅确认，之后发布的消息不会丢失
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	s.subs = append(s.subs, ps)

	out := make(chan *message.Message, DefaultChannelBufferSize)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer close(out)

		in := ps.Channel()

		for {
			select {
			case <-s.closeCh:
				return
			case <-ctx.Done():
				return
			case m, ok := <-in:
				if !ok {
					return
				}

				msg, err := unmarshalRedisMessage([]byte(m.Payload))
				if err != nil {
					s.logger.Error("drop malformed message", err, watermill.LogFields{"topic": topic})
					continue
				}

				msg.SetContext(ctx)

				select {
				case out <- msg:
				case <-s.closeCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close 实现 Subscriber 接口.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	close(s.closeCh)

	var errs []error
	for _, ps := range s.subs {
		errs = append(errs, ps.Close())
	}

	s.mu.Unlock()

	s.wg.Wait()

	errs = append(errs, s.client.Close())

	return errors.Join(errs...)
}

func marshalRedisMessage(msg *message.Message) ([]byte, error) {
	md := make(map[string]string, len(msg.Metadata)+1)
	for k, v := range msg.Metadata {
		md[k] = v
	}

	md[uuidMetadataKey] = msg.UUID

	return sonic.Marshal(redisEnvelope{Metadata: md, Payload: msg.Payload})
}

func unmarshalRedisMessage(data []byte) (*message.Message, error) {
	var env redisEnvelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	id := env.Metadata[uuidMetadataKey]
	if id == "" {
		id = watermill.NewUUID()
	}

	delete(env.Metadata, uuidMetadataKey)

	msg := message.NewMessage(id, env.Payload)
	for k, v := range env.Metadata {
		msg.Metadata.Set(k, v)
	}

	return msg, nil
}
