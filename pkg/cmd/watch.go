package cmd

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/iolabel/pkg/batch"
	"github.com/yeisme/iolabel/pkg/cache"
	"github.com/yeisme/iolabel/pkg/classify"
	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/darshan"
	"github.com/yeisme/iolabel/pkg/internal/jobs"
	"github.com/yeisme/iolabel/pkg/internal/service"
	"github.com/yeisme/iolabel/pkg/internal/storage"
	s3c "github.com/yeisme/iolabel/pkg/internal/storage/s3"
	"github.com/yeisme/iolabel/pkg/log"
	"github.com/yeisme/iolabel/pkg/metrics"
	"github.com/yeisme/iolabel/pkg/queue"
	"github.com/yeisme/iolabel/pkg/scheduler"
)

var (
	watchOpts struct {
		cron string
		once bool
	}

	watchCmd = &cobra.Command{
		Use:   "watch [globs...]",
		Short: "periodically classify new logs into the index database",
		Long: "watch expands the given globs (or watch.patterns) on every cron tick, " +
			"classifies logs it has not seen yet and upserts them into the index.",
		RunE: runWatch,
	}
)

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := configs.GetConfig()
	logger := log.Logger()

	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Watch.Patterns
	}

	if len(patterns) == 0 {
		return errors.New("no patterns to watch: pass globs or set watch.patterns")
	}

	cronExpr := cfg.Watch.Cron
	if cmd.Flags().Changed("cron") {
		cronExpr = watchOpts.cron
	}

	mgr, err := storage.Init(ctx, cfg, storage.Options{
		DB: true,
		S3: slices.ContainsFunc(patterns, s3c.IsURI),
		KV: cfg.Cache.Enabled,
		MQ: cfg.MQ.Enabled,
	})
	if err != nil {
		return err
	}
	defer mgr.Close()

	reader, err := darshan.NewReader(darshan.ReaderType(cfg.Reader.Type), cfg.Reader)
	if err != nil {
		return err
	}

	classifier, err := classify.New(cfg.Classify)
	if err != nil {
		return err
	}

	runnerOpts := []batch.Option{batch.WithThreads(cfg.Classify.Threads)}
	if mgr.KV != nil {
		runnerOpts = append(runnerOpts, batch.WithCache(cache.NewCache(mgr.KV, cfg.Cache.Prefix), cfg.Cache.TTL))
	}

	ixOpts := []jobs.IndexerOption{jobs.WithSkipKnown(cfg.Watch.SkipKnown)}
	if mgr.MQ != nil {
		ixOpts = append(ixOpts, jobs.WithPublisher(queue.NewFilteredPublisher(mgr.MQ.Publisher(), cfg.Events.Allows)))
	}

	if mgr.S3 != nil {
		dir := cfg.S3.DownloadDir
		if dir == "" {
			dir, err = os.MkdirTemp("", "iolabel-watch-")
			if err != nil {
				return fmt.Errorf("create download dir: %w", err)
			}
			defer os.RemoveAll(dir)
		}

		ixOpts = append(ixOpts, jobs.WithFetcher(mgr.S3, dir))
	}

	ix := jobs.NewIndexer(
		batch.New(reader, classifier, runnerOpts...),
		service.NewIndexServiceWithClient(mgr.DB),
		patterns,
		ixOpts...,
	)

	defer func() {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn().Err(err).Msg("failed to write metrics textfile")
		}
	}()

	if watchOpts.once {
		stats, err := ix.RunOnce(ctx)
		if err != nil {
			return err
		}

		return printJSON(cmd, stats)
	}

	loc, err := time.LoadLocation(cfg.Classify.Timezone)
	if err != nil {
		loc = time.Local
	}

	sched, err := scheduler.NewScheduler(loc)
	if err != nil {
		return err
	}

	if err := jobs.RegisterIndexJob(ctx, sched, ix, cronExpr, true); err != nil {
		return err
	}

	sched.Start()
	logger.Info().Str("cron", cronExpr).Strs("patterns", patterns).Msg("watching for new logs")

	<-ctx.Done()

	logger.Info().Msg("stopping watcher")

	return sched.Shutdown()
}

// registerWatchCommands 注册 watch 命令.
func registerWatchCommands() {
	watchCmd.Flags().StringVar(&watchOpts.cron, "cron", configs.DefaultWatchCron, "cron expression of the index job")
	watchCmd.Flags().BoolVar(&watchOpts.once, "once", false, "run a single index pass and exit")

	rootCmd.AddCommand(watchCmd)
}
