package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/darshan"
)

var readersCmd = &cobra.Command{
	Use:   "readers",
	Short: "list all registered trace reader types",
	Run: func(cmd *cobra.Command, args []string) {
		current := configs.GetConfig().Reader.Type

		fmt.Fprintln(cmd.OutOrStdout(), "Registered reader types:")

		for _, t := range darshan.RegisteredReaders() {
			mark := " "
			if string(t) == current {
				mark = "*"
			}

			fmt.Fprintf(cmd.OutOrStdout(), " %s - %s\n", mark, t)
		}
	},
}

// registerReadersCommands 注册读取器相关命令.
func registerReadersCommands() {
	rootCmd.AddCommand(readersCmd)
}
