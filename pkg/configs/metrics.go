package configs

import "github.com/spf13/viper"

// MetricsConfig Prometheus 指标. serve 通过 Path 暴露，
// classify 这类一次性命令可以写 node-exporter 的 textfile.
type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	Path           string `mapstructure:"path"            rule:"startswith=/"`
	RuntimeMetrics bool   `mapstructure:"runtime_metrics"`
	// Textfile 为空时不写
	Textfile string `mapstructure:"textfile"`
	// Labels 作为 iolabel_build_info 的常量标签
	Labels map[string]string `mapstructure:"labels"`
}

func (c *MetricsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.service_name", "iolabel")
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.runtime_metrics", true)
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("metrics.labels", map[string]string{})
}
