package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultCacheEnabled = false
	DefaultCacheTTL     = 7 * 24 * time.Hour
	DefaultCachePrefix  = "iolabel:result"
)

// CacheConfig 分类结果缓存配置，后端由 kv 配置决定.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"     rule:"min=0"`
	Prefix  string        `mapstructure:"prefix"  rule:"required"`
}

func (c *CacheConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("cache.enabled", DefaultCacheEnabled)
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("cache.prefix", DefaultCachePrefix)
}
