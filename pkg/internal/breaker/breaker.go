// Package breaker 根据配置构造 gobreaker 熔断器，供 HTTP 中间件与对象存储下载共用.
package breaker

import (
	"github.com/sony/gobreaker"

	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/log"
)

// Breaker 包装 gobreaker；未启用时 Execute 直接执行.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// New 创建熔断器.
func New(name string, cfg configs.CircuitBreakerConfig) *Breaker {
	if !cfg.Enabled {
		return &Breaker{}
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequestsInHalf,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}

			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRate
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Logger().Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute 在熔断器保护下执行 fn.
func (b *Breaker) Execute(fn func() error) error {
	if b == nil || b.cb == nil {
		return fn()
	}

	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})

	return err
}

// State 返回当前状态，未启用时为 "disabled".
func (b *Breaker) State() string {
	if b == nil || b.cb == nil {
		return "disabled"
	}

	return b.cb.State().String()
}
