package configs

import "github.com/spf13/viper"

// KVConfig.Type 的取值.
const (
	KVTypeMemory     = "memory"
	KVTypeRedis      = "redis"
	KVTypeGroupcache = "groupcache"
	KVTypeNATS       = "nats"
)

type (
	// KVConfig 结果缓存和响应缓存共用的 KV 后端. 只有 Type 对应的子配置生效.
	KVConfig struct {
		Type       string             `mapstructure:"type"       rule:"oneof=memory redis groupcache nats"`
		Redis      RedisKVConfig      `mapstructure:"redis"`
		Groupcache GroupcacheKVConfig `mapstructure:"groupcache"`
		NATS       NATSKVConfig       `mapstructure:"nats"`
	}

	RedisKVConfig struct {
		Addr     string `mapstructure:"addr"     rule:"hostname_port"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
	}

	// GroupcacheKVConfig 分类结果按内容寻址且不可变，可以在多个 serve 实例间共享.
	// Peers 为空时只在本进程内缓存.
	GroupcacheKVConfig struct {
		Name       string `mapstructure:"name"        rule:"required"`
		CacheBytes int64  `mapstructure:"cache_bytes" rule:"min=1"`
		// Self 本节点的对外地址，例如 http://10.0.0.1:8080，设置 Peers 时必填
		Self  string   `mapstructure:"self"  rule:"omitempty,url"`
		Peers []string `mapstructure:"peers" rule:"dive,url"`
	}

	// NATSKVConfig JetStream KeyValue bucket.
	NATSKVConfig struct {
		URL      string `mapstructure:"url"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Bucket   string `mapstructure:"bucket"   rule:"required"`
	}
)

func (c *KVConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("kv.type", KVTypeMemory)

	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("kv.redis.password", "")
	v.SetDefault("kv.redis.db", 0)

	v.SetDefault("kv.groupcache.name", "iolabel-cache")
	v.SetDefault("kv.groupcache.cache_bytes", 64<<20)
	v.SetDefault("kv.groupcache.self", "")
	v.SetDefault("kv.groupcache.peers", []string{})

	v.SetDefault("kv.nats.url", "nats://localhost:4222")
	v.SetDefault("kv.nats.bucket", "iolabel-cache")
}
