package log_test

import (
	"bytes"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/log"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer

	l := log.New(configs.LogConfig{Level: "warn", Format: configs.LogFormatJSON}, false, &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	l.Info().Msg("dropped")
	l.Warn().Str("file", "a.darshan").Msg("start_time is undecipherable")

	var event map[string]any
	require.NoError(t, sonic.Unmarshal(bytes.TrimSpace(buf.Bytes()), &event))
	assert.Equal(t, "warn", event["level"])
	assert.Equal(t, "a.darshan", event["file"])
	assert.Equal(t, "start_time is undecipherable", event["message"])
}

func TestNewInvalidLevel(t *testing.T) {
	var buf bytes.Buffer

	l := log.New(configs.LogConfig{Level: "loud", Format: configs.LogFormatJSON}, false, &buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	assert.Contains(t, buf.String(), `invalid log level "loud"`)

	buf.Reset()
	l.Debug().Msg("hidden")
	l.Info().Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestGinWriter(t *testing.T) {
	var buf bytes.Buffer

	l := log.New(configs.LogConfig{Level: "info", Format: configs.LogFormatJSON}, false, &buf)
	w := log.NewGinWriter(&l, zerolog.ErrorLevel)

	n, err := w.Write([]byte("[GIN-debug] route registered\n"))
	require.NoError(t, err)
	assert.Equal(t, 29, n)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"component":"gin"`)
}
