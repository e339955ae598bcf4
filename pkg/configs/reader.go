package configs

import (
	"github.com/spf13/viper"
)

const (
	DefaultReaderType       = "auto"
	DefaultReaderParserPath = "darshan-parser"
)

// ReaderConfig 日志读取器配置.
type ReaderConfig struct {
	Type       string   `mapstructure:"type"        rule:"oneof=auto parser text json"`
	ParserPath string   `mapstructure:"parser_path" rule:"required"`
	ParserArgs []string `mapstructure:"parser_args"`
}

// setDefaults 设置读取器配置的默认值.
func (c *ReaderConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("reader.type", DefaultReaderType)
	v.SetDefault("reader.parser_path", DefaultReaderParserPath)
	v.SetDefault("reader.parser_args", []string{"--base", "--total", "--perf"})
}
