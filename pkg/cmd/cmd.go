// Package cmd contains the command line applications for the project.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/log"
	"github.com/yeisme/iolabel/pkg/metrics"
	"github.com/yeisme/iolabel/pkg/tracing"
)

var (
	// configPath 配置文件或配置目录.
	configPath string
	// debug 打开调试输出（caller、gin debug 模式、SQL 日志）.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "iolabel",
		Short: "Classify Darshan I/O traces by file system, access mode and file-sharing pattern",
		Long: "iolabel reads Darshan logs and labels each job with the compute system, " +
			"the dominant file system, read or write mode and shared or file-per-process access.",
		Version:           configs.AppVersion,
		SilenceUsage:      true,
		PersistentPreRunE: initRuntime,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")

	registerClassifyCommands()
	registerIndexCommands()
	registerServeCommands()
	registerWatchCommands()
	registerFsCommands()
	registerConfigsCommands()
	registerDBCommands()
	registerKVCommands()
	registerReadersCommands()
	registerMQCommands()
}

// initRuntime 加载配置并初始化日志、指标和链路追踪.
func initRuntime(cmd *cobra.Command, _ []string) error {
	if err := configs.InitConfig(configPath); err != nil {
		return err
	}

	cfg := configs.GetConfig()
	if debug {
		cfg.Server.Debug = true
		cfg.Log.Level = "debug"
	}

	log.Init()
	metrics.InitMetrics(cfg.Metrics)

	return tracing.InitTracer(cmd.Context(), cfg.Tracing)
}

// Execute runs the root command. SIGINT/SIGTERM 取消命令的 context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)

	if shutdownErr := tracing.ShutdownTracer(context.Background()); shutdownErr != nil {
		log.Logger().Warn().Err(shutdownErr).Msg("failed to flush traces")
	}

	return err
}
