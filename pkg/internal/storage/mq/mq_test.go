package mq

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/iolabel/pkg/configs"
)

func TestRegisteredMQTypes(t *testing.T) {
	assert.Equal(t, []configs.MQType{configs.MQTypeGoChannel, configs.MQTypeNATS, configs.MQTypeRedis}, GetRegisteredMQTypes())

	_, err := New(context.Background(), configs.MQConfig{Type: "kafka"}, false)
	require.Error(t, err)
}

func TestGoChannelClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := New(ctx, configs.MQConfig{Type: configs.MQTypeGoChannel, Common: configs.MQCommonConfig{OutputBuffer: 8}}, false)
	require.NoError(t, err)

	ch, err := c.Subscribe(ctx, "iolabel.test")
	require.NoError(t, err)

	require.NoError(t, c.Publish(ctx, "iolabel.test", message.NewMessage("id-1", []byte("hello"))))

	select {
	case m := <-ch:
		assert.Equal(t, "id-1", m.UUID)
		assert.Equal(t, []byte("hello"), []byte(m.Payload))
		m.Ack()
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestNilClient(t *testing.T) {
	var c *Client

	require.Error(t, c.Publish(context.Background(), "t"))

	_, err := c.Subscribe(context.Background(), "t")
	require.Error(t, err)
}

func TestRedisEnvelope(t *testing.T) {
	msg := message.NewMessage("01HZX", []byte(`{"a":1}`))
	msg.Metadata.Set("topic", "iolabel.log.classified")

	data, err := marshalRedisMessage(msg)
	require.NoError(t, err)

	got, err := unmarshalRedisMessage(data)
	require.NoError(t, err)
	assert.Equal(t, "01HZX", got.UUID)
	assert.Equal(t, []byte(`{"a":1}`), []byte(got.Payload))
	assert.Equal(t, "iolabel.log.classified", got.Metadata.Get("topic"))
	assert.Empty(t, got.Metadata.Get(uuidMetadataKey))

	_, err = unmarshalRedisMessage([]byte("not json"))
	require.Error(t, err)
}

func TestBuildURL(t *testing.T) {
	cfg := &configs.MQConfig{Common: configs.MQCommonConfig{URL: "nats://a:4222"}}
	assert.Equal(t, "nats://a:4222", buildURL(cfg))

	cfg.NATS.ClusterURLs = []string{"nats://b:4222", "nats://c:4222"}
	assert.Equal(t, "nats://b:4222,nats://c:4222", buildURL(cfg))

	assert.True(t, buildJetStreamConfig(cfg).Disabled)
}
