// Package configs 定义 iolabel 的全部配置项，并负责加载、校验和热重载.
//
// 配置来源按优先级从低到高：各节 setDefaults 中的默认值、配置文件（yaml、json、toml、dotenv）、
// IOLABEL_ 前缀的环境变量（"." 换成 "_"，例如 IOLABEL_CLASSIFY_THREADS）. 结构体字段上的
// rule 标签由 pkg/rule 校验，校验失败时 InitConfig 返回错误，热重载则保留旧配置.
//
//	if err := configs.InitConfig("./"); err != nil {
//		return err
//	}
//
//	for _, r := range configs.GetConfig().Classify.MountToFsName {
//		fmt.Println(r.Pattern, "->", r.FsName)
//	}
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/yeisme/iolabel/pkg/rule"
)

// AppVersion 应用版本.
const AppVersion = "0.3.0"

// EnvPrefix 环境变量前缀，例如 IOLABEL_CLASSIFY_THREADS.
const EnvPrefix = "IOLABEL"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Classify       ClassifyConfig       `mapstructure:"classify"`        // 分类规则
		Reader         ReaderConfig         `mapstructure:"reader"`          // 日志读取器
		Cache          CacheConfig          `mapstructure:"cache"`           // 分类结果缓存
		KV             KVConfig             `mapstructure:"kv"`              // KV 存储
		DB             DBConfig             `mapstructure:"db"`              // 索引数据库
		S3             S3Config             `mapstructure:"s3"`              // 对象存储
		MQ             MQConfig             `mapstructure:"mq"`              // 消息队列
		Events         EventsConfig         `mapstructure:"events"`          // 分主题事件开关
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // 熔断器
		Log            LogConfig            `mapstructure:"log"`             // 日志
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // 指标
		Tracing        TracingConfig        `mapstructure:"tracing"`         // 链路追踪
		Server         ServerConfig         `mapstructure:"server"`          // HTTP 服务
		Watch          WatchConfig          `mapstructure:"watch"`           // 定时索引
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
)

// configExts 在目录中查找 config.<ext> 的顺序.
var configExts = []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

// InitConfig 从 path 加载全局配置. path 可以是文件，也可以是包含 config.* 或 configs/config.* 的目录.
// 找不到配置文件时只使用默认值和环境变量.
func InitConfig(path string) error {
	v := viper.New()
	setAllDefaults(v)

	if file := findConfigFile(path); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(path)
		v.AddConfigPath(filepath.Join(path, "configs"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := load(v)
	if err != nil {
		return err
	}

	appViper = v
	globalConfig = *cfg

	reloadConfigs(v, cfg.Server.ReloadConfig)

	return nil
}

// findConfigFile path 是普通文件时直接返回；是目录时按 configExts 查找 config.<ext>.
func findConfigFile(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}

	if !info.IsDir() {
		return path
	}

	for _, ext := range configExts {
		f := filepath.Join(path, "config."+ext)
		if st, err := os.Stat(f); err == nil && !st.IsDir() {
			return f
		}
	}

	return ""
}

// Load 从给定的 viper 实例解析并校验配置，不修改全局配置.
func Load(v *viper.Viper) (*AppConfig, error) {
	setAllDefaults(v)

	return load(v)
}

func load(v *viper.Viper) (*AppConfig, error) {
	var cfg AppConfig
	// 解析到配置结构
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := rule.ValidateStruct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var (
		classifyConfig ClassifyConfig
		readerConfig   ReaderConfig
		cacheConfig    CacheConfig
		kvConfig       KVConfig
		dbConfig       DBConfig
		s3Config       S3Config
		mqConfig       MQConfig
		eventsConfig   EventsConfig
		cbConfig       CircuitBreakerConfig
		logConfig      LogConfig
		metricsConfig  MetricsConfig
		tracingConfig  TracingConfig
		serverConfig   ServerConfig
		watchConfig    WatchConfig
	)

	classifyConfig.setDefaults(v)
	readerConfig.setDefaults(v)
	cacheConfig.setDefaults(v)
	kvConfig.setDefaults(v)
	dbConfig.setDefaults(v)
	s3Config.setDefaults(v)
	mqConfig.setDefaults(v)
	eventsConfig.setDefaults(v)
	cbConfig.setDefaults(v)
	logConfig.setDefaults(v)
	metricsConfig.setDefaults(v)
	tracingConfig.setDefaults(v)
	serverConfig.setDefaults(v)
	watchConfig.setDefaults(v)
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload || v.ConfigFileUsed() == "" {
		return
	}
	// 启用配置热重载，校验失败时保留旧配置
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Fprintln(os.Stderr, "Config file changed:", e.Name)

		cfg, err := load(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reloading config: %v\n", err)

			return
		}

		globalConfig = *cfg
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	return &globalConfig
}

// GetViper 返回全局 Viper 实例，未初始化时为 nil.
func GetViper() *viper.Viper {
	return appViper
}
