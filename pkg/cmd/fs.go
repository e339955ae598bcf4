package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yeisme/iolabel/pkg/classify"
	"github.com/yeisme/iolabel/pkg/configs"
)

var (
	fsCmd = &cobra.Command{
		Use:   "fs",
		Short: "inspect mount point to file system rules",
	}

	fsListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list mount rules in match order",
		Aliases: []string{"ls", "l"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := classify.New(configs.GetConfig().Classify)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATTERN\tFILE SYSTEM\tCOMPUTE SYSTEM")

			for _, r := range c.Namer().Rules() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Pattern, r.FsName, classify.ComputeSystem(r.FsName))
			}

			return w.Flush()
		},
	}

	fsResolveCmd = &cobra.Command{
		Use:   "resolve <mount...>",
		Short: "print the file system and compute system a mount point maps to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := classify.New(configs.GetConfig().Classify)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			for _, mount := range args {
				fs := c.Namer().Name(mount)
				fmt.Fprintf(w, "%s\t%s\t%s\n", mount, fs, classify.ComputeSystem(fs))
			}

			return w.Flush()
		},
	}
)

// registerFsCommands 注册文件系统规则相关命令.
func registerFsCommands() {
	fsCmd.AddCommand(fsListCmd, fsResolveCmd)

	rootCmd.AddCommand(fsCmd)
}
