// Package log 提供全局 zerolog logger.
//
// 日志统一写到 stderr（stdout 留给分类结果），格式为 console 或 json，可选再写入
// lumberjack 轮转文件. 未调用 Init 时首次 Logger() 会按当前配置初始化.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yeisme/iolabel/pkg/configs"
)

var (
	logger   zerolog.Logger
	initOnce sync.Once
)

// Init 按全局配置初始化 logger（幂等）.
func Init() {
	initOnce.Do(func() {
		cfg := configs.GetConfig()
		logger = New(cfg.Log, cfg.Server.Debug, os.Stderr)
		log.Logger = logger

		if cfg.Server.Debug {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	})
}

// New 按配置构造 logger，stderr 为主输出. debug 时附带调用位置.
func New(cfg configs.LogConfig, debug bool, stderr io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		fmt.Fprintf(stderr, "invalid log level %q, using info\n", cfg.Level)

		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)

	var out io.Writer = stderr
	if cfg.Format != configs.LogFormatJSON {
		out = zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = stderr
			w.TimeFormat = time.TimeOnly
		})
	}

	if cfg.EnableFile {
		// 文件始终为 JSON，便于采集
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	}

	ctx := zerolog.New(out).With().Timestamp()
	if debug {
		ctx = ctx.Caller()
	}

	return ctx.Logger()
}

// Logger 返回全局 logger.
func Logger() *zerolog.Logger {
	Init()

	return &logger
}

// Component 返回带 component 字段的子 logger.
func Component(name string) *zerolog.Logger {
	l := Logger().With().Str("component", name).Logger()

	return &l
}

// GinWriter 把 gin 写出的文本行转发为 zerolog 事件.
type GinWriter struct {
	logger *zerolog.Logger
	level  zerolog.Level
}

// NewGinWriter 创建 GinWriter，level 决定事件级别.
func NewGinWriter(logger *zerolog.Logger, level zerolog.Level) *GinWriter {
	return &GinWriter{logger: logger, level: level}
}

func (w *GinWriter) Write(p []byte) (int, error) {
	if msg := strings.TrimSpace(string(p)); msg != "" {
		w.logger.WithLevel(w.level).Str("component", "gin").Msg(msg)
	}

	return len(p), nil
}
