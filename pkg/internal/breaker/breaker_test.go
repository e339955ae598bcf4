package breaker_test

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/internal/breaker"
)

func TestBreakerDisabled(t *testing.T) {
	b := breaker.New("test", configs.CircuitBreakerConfig{})

	boom := errors.New("boom")
	for range 10 {
		require.ErrorIs(t, b.Execute(func() error { return boom }), boom)
	}

	assert.Equal(t, "disabled", b.State())
}

func TestBreakerOpens(t *testing.T) {
	b := breaker.New("test", configs.CircuitBreakerConfig{
		Enabled:           true,
		FailureRate:       0.5,
		MinRequests:       2,
		Interval:          time.Minute,
		Timeout:           time.Minute,
		MaxRequestsInHalf: 1,
	})

	boom := errors.New("boom")
	require.ErrorIs(t, b.Execute(func() error { return boom }), boom)
	require.ErrorIs(t, b.Execute(func() error { return boom }), boom)

	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, called)
	assert.Equal(t, "open", b.State())
}
