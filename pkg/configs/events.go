package configs

import "github.com/spf13/viper"

// EventsConfig 控制分类事件的发布（全局与分主题），仅在 mq.enabled 时生效.
type EventsConfig struct {
	Enabled bool              `mapstructure:"enabled"` // 总开关
	Log     LogEventsConfig   `mapstructure:"log"`
	Index   IndexEventsConfig `mapstructure:"index"`
}

// LogEventsConfig 单个日志的事件开关.
type LogEventsConfig struct {
	Classified bool `mapstructure:"classified"`
	Failed     bool `mapstructure:"failed"`
}

// IndexEventsConfig 定时索引的事件开关.
type IndexEventsConfig struct {
	Updated bool `mapstructure:"updated"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)

	v.SetDefault("events.log.classified", true)
	v.SetDefault("events.log.failed", true)
	v.SetDefault("events.index.updated", true)
}

// Allows 判断 topic 是否允许发布，未知主题只看总开关.
func (c EventsConfig) Allows(topic string) bool {
	if !c.Enabled {
		return false
	}

	switch topic {
	case "iolabel.log.classified":
		return c.Log.Classified
	case "iolabel.log.failed":
		return c.Log.Failed
	case "iolabel.index.updated":
		return c.Index.Updated
	default:
		return true
	}
}
