package mq

import (
	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"
)

// zerologAdapter 让 watermill 的日志进入应用 logger. watermill 的 Info 过于频繁，统一降为 Debug.
type zerologAdapter struct {
	l zerolog.Logger
}

// NewLoggerAdapter 桥接到 watermill.LoggerAdapter，日志带 component=mq.
func NewLoggerAdapter(l *zerolog.Logger) watermill.LoggerAdapter {
	return zerologAdapter{l: l.With().Str("component", "mq").Logger()}
}

func (z zerologAdapter) Error(msg string, err error, fields watermill.LogFields) {
	withFields(z.l.Error().Err(err), fields).Msg(msg)
}

func (z zerologAdapter) Info(msg string, fields watermill.LogFields) {
	withFields(z.l.Debug(), fields).Msg(msg)
}

func (z zerologAdapter) Debug(msg string, fields watermill.LogFields) {
	withFields(z.l.Debug(), fields).Msg(msg)
}

func (z zerologAdapter) Trace(msg string, fields watermill.LogFields) {
	withFields(z.l.Trace(), fields).Msg(msg)
}

func (z zerologAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return zerologAdapter{l: z.l.With().Fields(map[string]any(fields)).Logger()}
}

// withFields ev 为 nil（级别被过滤）时 zerolog 的方法都是空操作.
func withFields(ev *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	if len(fields) == 0 {
		return ev
	}

	return ev.Fields(map[string]any(fields))
}
