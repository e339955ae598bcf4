package configs

import (
	"time"

	"github.com/spf13/viper"
)

// CircuitBreakerConfig 熔断器配置，作用于 S3 下载和 HTTP 请求.
type CircuitBreakerConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	FailureRate float64 `mapstructure:"failure_rate" rule:"gt=0,lte=1"` // 统计窗口内失败比例阈值
	MinRequests uint32  `mapstructure:"min_requests" rule:"min=1"`      // 窗口内请求数达到后才判断
	// Interval 闭合状态下清零计数的周期，0 表示不清零
	Interval time.Duration `mapstructure:"interval" rule:"min=0"`
	// Timeout 打开状态持续多久后转为半开
	Timeout           time.Duration `mapstructure:"timeout"              rule:"min=0"`
	MaxRequestsInHalf uint32        `mapstructure:"max_requests_in_half" rule:"min=1"`
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", false)
	v.SetDefault("circuit_breaker.failure_rate", 0.5)
	v.SetDefault("circuit_breaker.min_requests", 10)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.max_requests_in_half", 2)
}
