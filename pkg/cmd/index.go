package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/iolabel/pkg/classify"
	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/internal/service"
	"github.com/yeisme/iolabel/pkg/internal/storage"
	"github.com/yeisme/iolabel/pkg/internal/types"
	"github.com/yeisme/iolabel/pkg/output"
	"github.com/yeisme/iolabel/pkg/rule"
)

// indexListFlags index ls 的过滤条件.
type indexListFlags struct {
	computeSystem string
	fileSystem    string
	readOrWrite   string
	sharedOrFPP   string
	application   string
	since         string
	until         string
	limit         int
	offset        int
	json          bool
}

var (
	indexListOpts indexListFlags

	indexCmd = &cobra.Command{
		Use:   "index",
		Short: "query classifications stored in the index database",
	}

	indexListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list stored classifications ordered by start time",
		Aliases: []string{"ls", "l"},
		Args:    cobra.NoArgs,
		RunE:    runIndexList,
	}

	indexStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "print label counts of the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withIndex(cmd.Context(), func(svc *service.IndexService) error {
				sum, err := svc.Summary(cmd.Context())
				if err != nil {
					return err
				}

				return printJSON(cmd, sum)
			})
		},
	}

	indexShowCmd = &cobra.Command{
		Use:   "show <md5>",
		Short: "print one stored classification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rule.ValidateVar(args[0], "md5"); err != nil {
				return fmt.Errorf("invalid md5 %q", args[0])
			}

			return withIndex(cmd.Context(), func(svc *service.IndexService) error {
				row, err := svc.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				res, err := row.ToResult()
				if err != nil {
					return err
				}

				return printJSON(cmd, res)
			})
		},
	}
)

func runIndexList(cmd *cobra.Command, _ []string) error {
	q := types.ListQuery{
		ComputeSystem: indexListOpts.computeSystem,
		FileSystem:    indexListOpts.fileSystem,
		ReadOrWrite:   indexListOpts.readOrWrite,
		SharedOrFPP:   indexListOpts.sharedOrFPP,
		Application:   indexListOpts.application,
		Limit:         indexListOpts.limit,
		Offset:        indexListOpts.offset,
	}

	var err error

	if q.Since, err = parseTimeFlag(indexListOpts.since); err != nil {
		return fmt.Errorf("invalid --since: %w", err)
	}

	if q.Until, err = parseTimeFlag(indexListOpts.until); err != nil {
		return fmt.Errorf("invalid --until: %w", err)
	}

	if err := rule.ValidateStruct(&q); err != nil {
		return err
	}

	return withIndex(cmd.Context(), func(svc *service.IndexService) error {
		list, err := svc.List(cmd.Context(), q)
		if err != nil {
			return err
		}

		results := make([]*classify.Result, 0, len(list.Items))

		for i := range list.Items {
			res, err := list.Items[i].ToResult()
			if err != nil {
				return err
			}

			results = append(results, res)
		}

		format := output.FormatCSV
		if indexListOpts.json {
			format = output.FormatJSON
		}

		if err := output.Write(cmd.OutOrStdout(), format, results); err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d classifications\n", len(results), list.Total)

		return nil
	})
}

// parseTimeFlag 接受 unix 秒或 YYYY-MM-DD（按 classify.timezone 解释），空串返回 nil.
func parseTimeFlag(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &v, nil
	}

	loc, err := time.LoadLocation(configs.GetConfig().Classify.Timezone)
	if err != nil {
		loc = time.Local
	}

	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return nil, err
	}

	v := t.Unix()

	return &v, nil
}

// withIndex 打开索引数据库执行 fn，结束后关闭连接.
func withIndex(ctx context.Context, fn func(svc *service.IndexService) error) error {
	mgr, err := storage.Init(ctx, configs.GetConfig(), storage.Options{DB: true})
	if err != nil {
		return err
	}
	defer mgr.Close()

	return fn(service.NewIndexServiceWithClient(mgr.DB))
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal json: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(b))

	return nil
}

// registerIndexCommands 注册索引查询命令.
func registerIndexCommands() {
	f := indexListCmd.Flags()
	f.StringVar(&indexListOpts.computeSystem, "compute-system", "", "filter by compute system")
	f.StringVar(&indexListOpts.fileSystem, "fs", "", "filter by file system")
	f.StringVar(&indexListOpts.readOrWrite, "mode", "", "filter by read_or_write (read, write, unknown)")
	f.StringVar(&indexListOpts.sharedOrFPP, "pattern", "", "filter by shared_or_fpp (fpp, shared, unknown)")
	f.StringVar(&indexListOpts.application, "app", "", "filter by application")
	f.StringVar(&indexListOpts.since, "since", "", "only jobs started at or after (unix seconds or YYYY-MM-DD)")
	f.StringVar(&indexListOpts.until, "until", "", "only jobs started at or before (unix seconds or YYYY-MM-DD)")
	f.IntVar(&indexListOpts.limit, "limit", 0, "maximum rows (default 1000)")
	f.IntVar(&indexListOpts.offset, "offset", 0, "rows to skip")
	f.BoolVarP(&indexListOpts.json, "json", "j", false, "output as json")

	indexCmd.AddCommand(indexListCmd, indexStatsCmd, indexShowCmd)

	rootCmd.AddCommand(indexCmd)
}
