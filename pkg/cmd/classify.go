package cmd

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/yeisme/iolabel/pkg/batch"
	"github.com/yeisme/iolabel/pkg/cache"
	"github.com/yeisme/iolabel/pkg/classify"
	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/darshan"
	"github.com/yeisme/iolabel/pkg/internal/service"
	"github.com/yeisme/iolabel/pkg/internal/storage"
	s3c "github.com/yeisme/iolabel/pkg/internal/storage/s3"
	"github.com/yeisme/iolabel/pkg/log"
	"github.com/yeisme/iolabel/pkg/metrics"
	"github.com/yeisme/iolabel/pkg/output"
	"github.com/yeisme/iolabel/pkg/queue"
)

// classifyFlags classify 子命令参数，未显式指定的沿用配置.
type classifyFlags struct {
	output  string
	json    bool
	threads int
	format  string
	store   bool
	dumpDir string
}

var (
	classifyOpts classifyFlags

	classifyCmd = &cobra.Command{
		Use:   "classify <logs...>",
		Short: "classify Darshan logs and print one labelled row per log",
		Example: "  iolabel classify -t 8 'logs/2017/*/*.darshan'\n" +
			"  iolabel classify -j -o labels.json s3://darshan-logs/2017/03/*.darshan",
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}
)

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := configs.GetConfig()
	logger := log.Logger()

	threads := cfg.Classify.Threads
	if cmd.Flags().Changed("threads") {
		threads = classifyOpts.threads
	}

	if threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", threads)
	}

	readerType := cfg.Reader.Type
	if cmd.Flags().Changed("format") {
		readerType = classifyOpts.format
	}

	remote := slices.ContainsFunc(args, s3c.IsURI)

	mgr, err := storage.Init(ctx, cfg, storage.Options{
		DB: classifyOpts.store || cfg.DB.Enabled,
		S3: remote,
		KV: cfg.Cache.Enabled,
		MQ: cfg.MQ.Enabled,
	})
	if err != nil {
		return err
	}
	defer mgr.Close()

	var fetcher batch.Fetcher

	fetchDir := cfg.S3.DownloadDir

	if mgr.S3 != nil {
		fetcher = mgr.S3

		if fetchDir == "" {
			fetchDir, err = os.MkdirTemp("", "iolabel-s3-")
			if err != nil {
				return fmt.Errorf("create download dir: %w", err)
			}
			defer os.RemoveAll(fetchDir)
		}
	}

	paths, err := batch.ExpandInputs(ctx, args, fetcher, fetchDir, logger)
	if err != nil {
		return err
	}

	if len(paths) == 0 {
		return errors.New("no input logs")
	}

	reader, err := darshan.NewReader(darshan.ReaderType(readerType), cfg.Reader)
	if err != nil {
		return err
	}

	if classifyOpts.dumpDir != "" {
		reader, err = darshan.NewDumpReader(reader, classifyOpts.dumpDir)
		if err != nil {
			return err
		}
	}

	classifier, err := classify.New(cfg.Classify)
	if err != nil {
		return err
	}

	opts := []batch.Option{batch.WithThreads(threads)}
	if mgr.KV != nil {
		opts = append(opts, batch.WithCache(cache.NewCache(mgr.KV, cfg.Cache.Prefix), cfg.Cache.TTL))
	}

	logger.Debug().Int("logs", len(paths)).Int("threads", threads).Str("reader", readerType).Msg("classifying logs")

	report := batch.New(reader, classifier, opts...).Run(ctx, paths)

	format := output.FormatCSV
	if classifyOpts.json {
		format = output.FormatJSON
	}

	if err := output.WriteFile(classifyOpts.output, format, report.Results, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
		return err
	}

	if mgr.DB != nil && len(report.Results) > 0 {
		n, err := service.NewIndexServiceWithClient(mgr.DB).Save(ctx, report.Results)
		if err != nil {
			return err
		}

		logger.Info().Int("stored", n).Msg("classifications stored in index")
	}

	if mgr.MQ != nil {
		if err := queue.PublishReport(ctx, queue.NewFilteredPublisher(mgr.MQ.Publisher(), cfg.Events.Allows), report, queue.WithProducer("iolabel classify")); err != nil {
			logger.Warn().Err(err).Msg("failed to publish classification events")
		}
	}

	if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		logger.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("failed to write metrics textfile")
	}

	if len(report.Failures) > 0 {
		logger.Warn().Int("failed", len(report.Failures)).Int("classified", len(report.Results)).Msg("some logs could not be classified")
	}

	return report.Err()
}

// registerClassifyCommands 注册 classify 命令.
func registerClassifyCommands() {
	f := classifyCmd.Flags()
	f.StringVarP(&classifyOpts.output, "output", "o", "", "output file name (default: stdout)")
	f.BoolVarP(&classifyOpts.json, "json", "j", false, "output as json")
	f.IntVarP(&classifyOpts.threads, "threads", "t", configs.DefaultClassifyThreads, "number of concurrent classifications")
	f.StringVar(&classifyOpts.format, "format", configs.DefaultReaderType, "trace reader: auto, parser, text or json")
	f.BoolVar(&classifyOpts.store, "store", false, "also upsert results into the index database")
	f.StringVar(&classifyOpts.dumpDir, "dump-dir", "", "write each decoded record set as json into this directory")

	rootCmd.AddCommand(classifyCmd)
}
