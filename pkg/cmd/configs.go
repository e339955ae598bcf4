package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/iolabel/pkg/configs"
)

var (
	configCmd = &cobra.Command{
		Use:     "config",
		Short:   "Inspect the loaded configuration",
		Aliases: []string{"configs"},
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the config file in use",
		Run: func(cmd *cobra.Command, args []string) {
			file := ""
			if v := configs.GetViper(); v != nil {
				file = v.ConfigFileUsed()
			}

			if file == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "(none: defaults and IOLABEL_* environment only)")
				return
			}

			fmt.Fprintln(cmd.OutOrStdout(), file)
		},
	}

	// 配置在 PersistentPreRunE 中已加载并校验，这里只输出结果.
	configDebugCmd = &cobra.Command{
		Use:   "debug",
		Short: "print the effective config as JSON (secrets hidden)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				if v := configs.GetViper(); v != nil {
					v.Debug()
				}
			}

			return printJSON(cmd, configs.GetConfig().Redacted())
		},
	}
)

// registerConfigsCommands 注册 config 命令.
func registerConfigsCommands() {
	configCmd.AddCommand(configPathCmd, configDebugCmd)
	rootCmd.AddCommand(configCmd)
}
