package configs

import (
	"github.com/spf13/viper"
)

const (
	DefaultWatchCron = "*/10 * * * *" // 每 10 分钟
)

// WatchConfig 定时索引配置.
type WatchConfig struct {
	Cron     string   `mapstructure:"cron"      rule:"required"`
	Patterns []string `mapstructure:"patterns"`
	// SkipKnown 跳过索引中已存在的 md5
	SkipKnown bool `mapstructure:"skip_known"`
}

func (c *WatchConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("watch.cron", DefaultWatchCron)
	v.SetDefault("watch.patterns", []string{})
	v.SetDefault("watch.skip_known", true)
}
