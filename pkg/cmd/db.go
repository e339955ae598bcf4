package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/internal/service"
	"github.com/yeisme/iolabel/pkg/internal/storage/db"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Index database commands",
	}

	dbListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list the database types compiled into this binary",
		Aliases: []string{"ls", "l"},
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			current := configs.GetConfig().DB.Type

			for _, t := range db.GetRegisteredDBTypes() {
				mark := " "
				if t == current {
					mark = "*"
				}

				fmt.Fprintf(cmd.OutOrStdout(), " %s - %s\n", mark, t)
			}
		},
	}

	// 打开数据库时会自动迁移表结构.
	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "create or upgrade the index schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIndex(cmd.Context(), func(svc *service.IndexService) error {
				sum, err := svc.Summary(cmd.Context())
				if err != nil {
					return err
				}

				cfg := configs.GetConfig().DB
				fmt.Fprintf(cmd.OutOrStdout(), "%s %q is up to date (%d classifications)\n", cfg.GetDBType(), cfg.Database, sum.Total)

				return nil
			})
		},
	}
)

// registerDBCommands 注册 db 命令.
func registerDBCommands() {
	dbCmd.AddCommand(dbListCmd, dbMigrateCmd)
	rootCmd.AddCommand(dbCmd)
}
