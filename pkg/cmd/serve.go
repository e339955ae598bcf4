package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/iolabel/pkg/app"
	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve the classification index over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.GetConfig()

		if cmd.Flags().Changed("host") {
			cfg.Server.Host, _ = cmd.Flags().GetString("host")
		}

		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}

		mgr, err := storage.Init(cmd.Context(), cfg, storage.Options{DB: true, KV: true, S3: true})
		if err != nil {
			return err
		}
		defer mgr.Close()

		return app.NewApp(cfg, mgr).Run(cmd.Context())
	},
}

// registerServeCommands 注册 serve 命令.
func registerServeCommands() {
	serveCmd.Flags().String("host", configs.DefaultHost, "listen address")
	serveCmd.Flags().IntP("port", "p", configs.DefaultPort, "listen port")

	rootCmd.AddCommand(serveCmd)
}
