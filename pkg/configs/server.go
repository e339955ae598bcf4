package configs

import (
	"time"

	"github.com/spf13/viper"
)

// serve 子命令 --host/--port 的默认值.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 8080
)

type (
	// ServerConfig serve 子命令的 HTTP 服务.
	ServerConfig struct {
		Host string `mapstructure:"host" rule:"ip"`
		Port int    `mapstructure:"port" rule:"min=1,max=65535"`
		// Timeout 读请求头和写响应的超时，单位秒
		Timeout      int  `mapstructure:"timeout"       rule:"min=1,max=300"`
		Debug        bool `mapstructure:"debug"`
		ReloadConfig bool `mapstructure:"reload_config"`
		// ResponseTTL GET 响应在 KV 中的缓存时间，0 表示不缓存
		ResponseTTL time.Duration   `mapstructure:"response_ttl" rule:"min=0"`
		RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
		// CORSOrigins 允许跨域访问的来源，包含 "*" 时放行全部
		CORSOrigins []string `mapstructure:"cors_origins" rule:"dive,required"`
	}

	// RateLimitConfig 按客户端 IP 的令牌桶.
	RateLimitConfig struct {
		Enabled bool    `mapstructure:"enabled"`
		RPS     float64 `mapstructure:"rps"     rule:"gt=0"`
		Burst   int     `mapstructure:"burst"   rule:"min=1"`
	}
)

// GetTimeoutDuration Timeout 转为 time.Duration.
func (s *ServerConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

func (s *ServerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.timeout", 30)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.reload_config", false)
	v.SetDefault("server.response_ttl", 30*time.Second)
	v.SetDefault("server.rate_limit.enabled", false)
	v.SetDefault("server.rate_limit.rps", 50.0)
	v.SetDefault("server.rate_limit.burst", 100)
	v.SetDefault("server.cors_origins", []string{"*"})
}
