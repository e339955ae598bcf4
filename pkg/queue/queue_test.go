package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/iolabel/pkg/batch"
	"github.com/yeisme/iolabel/pkg/classify"
	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/queue"
)

func receive(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()

	select {
	case m := <-ch:
		m.Ack()
		return m
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
		return nil
	}
}

func TestNewWatermillMessage(t *testing.T) {
	msg, err := queue.NewWatermillMessage(queue.TopicLogFailed,
		queue.LogFailedPayload{Path: "/x/a.darshan", Reason: "read", Error: "boom"},
		queue.WithProducer("iolabel"), queue.WithTraceID("trace-1"))
	require.NoError(t, err)

	assert.Len(t, msg.UUID, 26)
	assert.Equal(t, queue.TopicLogFailed, msg.Metadata.Get("topic"))
	assert.Equal(t, "iolabel", msg.Metadata.Get("producer"))
	assert.Equal(t, "trace-1", msg.Metadata.Get("trace_id"))
	assert.Equal(t, queue.PayloadVersionV1, msg.Metadata.Get("version"))

	env, err := queue.ParseLogFailed(msg)
	require.NoError(t, err)
	assert.Equal(t, queue.TopicLogFailed, env.Header.Topic)
	assert.Equal(t, "read", env.Payload.Reason)
}

func TestMessageIDsAreOrdered(t *testing.T) {
	now := time.Now()

	a := queue.NewMessageID(now)
	b := queue.NewMessageID(now)
	c := queue.NewMessageID(now.Add(time.Second))

	assert.Less(t, a, b)
	assert.Less(t, b, c)
}

func TestPublishReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 8}, watermill.NopLogger{})
	defer ch.Close()

	okCh, err := ch.Subscribe(ctx, queue.TopicLogClassified)
	require.NoError(t, err)

	failCh, err := ch.Subscribe(ctx, queue.TopicLogFailed)
	require.NoError(t, err)

	app := "vpicio"
	report := &batch.Report{
		Results: []*classify.Result{{
			Application:   &app,
			ComputeSystem: "edison",
			FileSystem:    "scratch3",
			LogFile:       "a.darshan",
			MD5:           "0123456789abcdef0123456789abcdef",
			ReadOrWrite:   classify.ModeWrite,
			SharedOrFPP:   classify.PatternShared,
		}},
		Failures: []batch.Failure{{Path: "/logs/b.darshan", Reason: "empty", Err: errors.New("no records")}},
	}

	require.NoError(t, queue.PublishReport(ctx, ch, report, queue.WithProducer("test")))

	ok, err := queue.ParseLogClassified(receive(t, okCh))
	require.NoError(t, err)
	assert.Equal(t, "test", ok.Header.Producer)
	assert.Equal(t, "a.darshan", ok.Payload.Result.LogFile)
	assert.Equal(t, "vpicio", ok.Payload.Result.ApplicationOrEmpty())

	failed, err := queue.ParseLogFailed(receive(t, failCh))
	require.NoError(t, err)
	assert.Equal(t, queue.LogFailedPayload{Path: "/logs/b.darshan", Reason: "empty", Error: "no records"}, failed.Payload)
}

func TestPublishIndexUpdated(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 1}, watermill.NopLogger{})
	defer ch.Close()

	sub, err := ch.Subscribe(ctx, queue.TopicIndexUpdated)
	require.NoError(t, err)

	payload := queue.IndexUpdatedPayload{Patterns: []string{"/logs/*.darshan"}, Found: 3, Indexed: 2, Failed: 1}
	require.NoError(t, queue.PublishIndexUpdated(ch, payload))

	env, err := queue.ParseIndexUpdated(receive(t, sub))
	require.NoError(t, err)
	assert.Equal(t, payload, env.Payload)
}

func TestFilteredPublisher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 4}, watermill.NopLogger{})
	defer ch.Close()

	failCh, err := ch.Subscribe(ctx, queue.TopicLogFailed)
	require.NoError(t, err)
	okCh, err := ch.Subscribe(ctx, queue.TopicLogClassified)
	require.NoError(t, err)

	events := configs.EventsConfig{Enabled: true, Log: configs.LogEventsConfig{Failed: true}}
	pub := queue.NewFilteredPublisher(ch, events.Allows)

	report := &batch.Report{
		Results:  []*classify.Result{{LogFile: "a.darshan"}},
		Failures: []batch.Failure{{Path: "b.darshan", Reason: "read"}},
	}
	require.NoError(t, queue.PublishReport(ctx, pub, report))

	failed, err := queue.ParseLogFailed(receive(t, failCh))
	require.NoError(t, err)
	assert.Equal(t, "b.darshan", failed.Payload.Path)

	select {
	case m := <-okCh:
		t.Fatalf("unexpected classified event %s", m.UUID)
	case <-time.After(100 * time.Millisecond):
	}
}
