package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:   "kv",
		Short: "Result cache backend commands",
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list the kv backends usable by the result cache",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configs.GetConfig()

			state := "disabled"
			if cfg.Cache.Enabled {
				state = "enabled, ttl " + cfg.Cache.TTL.String()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Result cache: %s\n", state)

			for _, t := range kv.GetRegisteredKVTypes() {
				mark := " "
				if string(t) == cfg.KV.Type {
					mark = "*"
				}

				fmt.Fprintf(cmd.OutOrStdout(), " %s - %s\n", mark, t)
			}
		},
	}
)

// registerKVCommands 注册 kv 命令.
func registerKVCommands() {
	kvCmd.AddCommand(kvListCmd)
	rootCmd.AddCommand(kvCmd)
}
