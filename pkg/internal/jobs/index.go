// Package jobs 实现 watch 子命令的定时索引任务（基于 scheduler）.
package jobs

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/yeisme/iolabel/pkg/batch"
	"github.com/yeisme/iolabel/pkg/classify"
	"github.com/yeisme/iolabel/pkg/internal/service"
	"github.com/yeisme/iolabel/pkg/log"
	"github.com/yeisme/iolabel/pkg/queue"
	"github.com/yeisme/iolabel/pkg/scheduler"
)

// JobIndexLogs 定时索引任务名.
const JobIndexLogs = "index.logs"

// stamp 用文件大小和修改时间判断日志是否变化.
type stamp struct {
	size    int64
	modTime time.Time
}

// RunStats 一轮索引的统计.
type RunStats struct {
	Found   int `json:"found"`
	Skipped int `json:"skipped"`
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

// Indexer 周期性地把匹配 patterns 的新日志分类并写入索引.
// 已处理且未变化的文件不再读取；skipKnown 时 md5 已在索引中的文件不再分类.
type Indexer struct {
	runner    *batch.Runner
	index     *service.IndexService
	patterns  []string
	fetcher   batch.Fetcher
	fetchDir  string
	skipKnown bool
	publisher message.Publisher
	logger    *zerolog.Logger

	mu   sync.Mutex
	seen map[string]stamp
}

// IndexerOption 配置 Indexer.
type IndexerOption func(*Indexer)

// WithFetcher 允许 patterns 中包含 s3:// 输入.
func WithFetcher(f batch.Fetcher, dir string) IndexerOption {
	return func(ix *Indexer) {
		ix.fetcher = f
		ix.fetchDir = dir
	}
}

// WithSkipKnown 跳过索引中已存在的 md5.
func WithSkipKnown(skip bool) IndexerOption {
	return func(ix *Indexer) {
		ix.skipKnown = skip
	}
}

// WithPublisher 每轮索引后发布分类事件和 index.updated 事件.
func WithPublisher(pub message.Publisher) IndexerOption {
	return func(ix *Indexer) {
		ix.publisher = pub
	}
}

// NewIndexer 创建 Indexer.
func NewIndexer(runner *batch.Runner, index *service.IndexService, patterns []string, opts ...IndexerOption) *Indexer {
	l := log.Component("jobs").With().Str("job", JobIndexLogs).Logger()

	ix := &Indexer{
		runner:   runner,
		index:    index,
		patterns: patterns,
		logger:   &l,
		seen:     make(map[string]stamp),
	}

	for _, opt := range opts {
		opt(ix)
	}

	return ix
}

// RunOnce 执行一轮索引. 单个文件失败不影响本轮其他文件.
func (ix *Indexer) RunOnce(ctx context.Context) (RunStats, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	var stats RunStats

	paths, err := batch.ExpandInputs(ctx, ix.patterns, ix.fetcher, ix.fetchDir, ix.logger)
	if err != nil {
		return stats, err
	}

	stats.Found = len(paths)

	stamps := make(map[string]stamp, len(paths))
	todo := make([]string, 0, len(paths))

	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			// 交给 runner 记录失败
			todo = append(todo, p)
			continue
		}

		st := stamp{size: fi.Size(), modTime: fi.ModTime()}
		if prev, ok := ix.seen[p]; ok && prev == st {
			stats.Skipped++
			continue
		}

		stamps[p] = st
		todo = append(todo, p)
	}

	if ix.skipKnown && len(todo) > 0 {
		todo, err = ix.dropKnown(ctx, todo, stamps, &stats)
		if err != nil {
			return stats, err
		}
	}

	if len(todo) == 0 {
		ix.logger.Debug().Interface("stats", stats).Msg("nothing new to index")
		return stats, nil
	}

	report := ix.runner.Run(ctx, todo)
	stats.Failed = len(report.Failures)

	n, err := ix.index.Save(ctx, report.Results)
	if err != nil {
		return stats, fmt.Errorf("save results: %w", err)
	}

	stats.Indexed = n

	// 失败的文件同样记下，内容不变时不再重试
	for _, p := range todo {
		if st, ok := stamps[p]; ok {
			ix.seen[p] = st
		}
	}

	ix.publish(ctx, report, stats)

	ix.logger.Info().
		Int("found", stats.Found).
		Int("skipped", stats.Skipped).
		Int("indexed", stats.Indexed).
		Int("failed", stats.Failed).
		Msg("index run finished")

	return stats, nil
}

// publish 发布本轮事件，失败只记录日志.
func (ix *Indexer) publish(ctx context.Context, report *batch.Report, stats RunStats) {
	if ix.publisher == nil {
		return
	}

	opts := []queue.HeaderOption{queue.WithProducer(JobIndexLogs), queue.WithTraceFrom(ctx)}

	if err := queue.PublishReport(ctx, ix.publisher, report, opts...); err != nil {
		ix.logger.Warn().Err(err).Msg("publish classification events failed")
	}

	payload := queue.IndexUpdatedPayload{
		Patterns: ix.patterns,
		Found:    stats.Found,
		Skipped:  stats.Skipped,
		Indexed:  stats.Indexed,
		Failed:   stats.Failed,
	}

	if err := queue.PublishIndexUpdated(ix.publisher, payload, opts...); err != nil {
		ix.logger.Warn().Err(err).Msg("publish index event failed")
	}
}

// dropKnown 去掉 md5 已在索引中的文件.
func (ix *Indexer) dropKnown(ctx context.Context, paths []string, stamps map[string]stamp, stats *RunStats) ([]string, error) {
	sums := make(map[string]string, len(paths))
	list := make([]string, 0, len(paths))

	for _, p := range paths {
		sum, err := classify.HashFile(p)
		if err != nil {
			continue
		}

		sums[p] = sum
		list = append(list, sum)
	}

	known, err := ix.index.KnownHashes(ctx, list)
	if err != nil {
		return nil, fmt.Errorf("lookup known hashes: %w", err)
	}

	rest := paths[:0]

	for _, p := range paths {
		if sum, ok := sums[p]; ok {
			if _, isKnown := known[sum]; isKnown {
				stats.Skipped++
				ix.seen[p] = stamps[p]

				continue
			}
		}

		rest = append(rest, p)
	}

	return rest, nil
}

// RegisterIndexJob 把 Indexer 注册为定时任务，immediately 时启动后立即执行一轮.
func RegisterIndexJob(ctx context.Context, sched *scheduler.Scheduler, ix *Indexer, cronExpr string, immediately bool) error {
	if sched == nil {
		return fmt.Errorf("scheduler is nil")
	}

	return sched.AddCron(ctx, JobIndexLogs, cronExpr, immediately, func(ctx context.Context) error {
		_, err := ix.RunOnce(ctx)
		return err
	})
}
