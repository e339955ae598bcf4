// Package batch 并发地对一批 Darshan 日志分类.
//
// 每个日志的分类互不影响：单个文件失败只会记录到 Report.Failures，不会取消其他文件.
// 结果按 start_time 升序排列（缺失的排在最后，同值按 log_file 排序），与并发度无关.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/iolabel/pkg/cache"
	"github.com/yeisme/iolabel/pkg/classify"
	"github.com/yeisme/iolabel/pkg/darshan"
	"github.com/yeisme/iolabel/pkg/log"
	"github.com/yeisme/iolabel/pkg/metrics"
	"github.com/yeisme/iolabel/pkg/tracing"
)

type (
	// Failure 单个日志的失败信息.
	Failure struct {
		Path   string `json:"path"`
		Reason string `json:"reason"`
		Err    error  `json:"-"`
	}

	// Report 一次批量分类的结果.
	Report struct {
		Results  []*classify.Result `json:"results"`
		Failures []Failure          `json:"failures,omitempty"`
	}

	// Runner 批量分类器.
	Runner struct {
		reader     darshan.Reader
		classifier *classify.Classifier
		threads    int
		cache      *cache.Cache
		cacheTTL   time.Duration
		logger     *zerolog.Logger
		// fingerprint 分类配置摘要，作为缓存键的一部分
		fingerprint string
	}

	// Option 配置 Runner.
	Option func(*Runner)
)

// Error 实现 error.
func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Path, f.Err)
}

// Unwrap 返回底层错误.
func (f Failure) Unwrap() error {
	return f.Err
}

// WithThreads 设置并发度，小于 1 时按 1 处理.
func WithThreads(n int) Option {
	return func(r *Runner) {
		r.threads = max(n, 1)
	}
}

// WithCache 启用结果缓存.
func WithCache(c *cache.Cache, ttl time.Duration) Option {
	return func(r *Runner) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

// WithLogger 指定 logger，默认使用全局 logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// New 创建 Runner.
func New(reader darshan.Reader, classifier *classify.Classifier, opts ...Option) *Runner {
	r := &Runner{
		reader:      reader,
		classifier:  classifier,
		threads:     1,
		fingerprint: strconv.FormatUint(classifier.Fingerprint(), 16),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = log.Component("batch")
	}

	return r
}

// Run 对 paths 中的每个日志分类. threads 为 1 时严格串行.
func (r *Runner) Run(ctx context.Context, paths []string) *Report {
	results := make([]*classify.Result, len(paths))
	errs := make([]error, len(paths))

	if r.threads <= 1 {
		for i, p := range paths {
			results[i], errs[i] = r.ClassifyFile(ctx, p)
		}
	} else {
		var g errgroup.Group

		g.SetLimit(r.threads)

		for i, p := range paths {
			g.Go(func() error {
				results[i], errs[i] = r.ClassifyFile(ctx, p)
				// 不返回错误，避免影响其他任务
				return nil
			})
		}

		_ = g.Wait()
	}

	report := &Report{Results: make([]*classify.Result, 0, len(paths))}

	for i, p := range paths {
		if errs[i] != nil {
			f := Failure{Path: p, Reason: FailureReason(errs[i]), Err: errs[i]}
			report.Failures = append(report.Failures, f)

			r.logger.Error().Err(errs[i]).Str("log_file", p).Str("reason", f.Reason).Msg("failed to classify log")

			continue
		}

		report.Results = append(report.Results, results[i])
	}

	SortResults(report.Results)

	return report
}

// ClassifyFile 对单个日志分类：哈希、查缓存、读取、分类、写缓存.
func (r *Runner) ClassifyFile(ctx context.Context, path string) (res *classify.Result, err error) {
	ctx, span := tracing.StartSpan(ctx, "classify.file")
	span.SetAttributes(attribute.String("log_file", path))

	start := time.Now()

	defer func() {
		metrics.ClassifyDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.ClassifyFailures.WithLabelValues(FailureReason(err)).Inc()
			tracing.RecordError(span, err)
		} else {
			metrics.LogsClassified.WithLabelValues(string(res.ReadOrWrite), string(res.SharedOrFPP), res.ComputeSystem).Inc()
			r.logDiagnostics(res)
		}

		span.End()
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum, err := classify.HashFile(path)
	if err != nil {
		return nil, &hashError{err: err}
	}

	span.SetAttributes(attribute.String("md5", sum))

	if cached, ok := r.lookup(ctx, sum); ok {
		metrics.CacheHits.Inc()

		cached.LogFile = baseName(path)

		return cached, nil
	}

	rs, err := r.reader.Read(ctx, path)
	if err != nil {
		return nil, &readError{err: err}
	}

	res, err = r.classifier.Classify(rs, path, sum)
	if err != nil {
		return nil, err
	}

	r.store(ctx, res)

	return res, nil
}

func (r *Runner) cacheKey(sum string) string {
	return r.cache.Key(sum, r.fingerprint)
}

func (r *Runner) lookup(ctx context.Context, sum string) (*classify.Result, bool) {
	if r.cache == nil {
		return nil, false
	}

	res, err := cache.Get[classify.Result](ctx, r.cache, r.cacheKey(sum))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			r.logger.Warn().Err(err).Str("md5", sum).Msg("result cache lookup failed")
		}

		return nil, false
	}

	return &res, true
}

func (r *Runner) store(ctx context.Context, res *classify.Result) {
	if r.cache == nil {
		return
	}

	if err := cache.Set(ctx, r.cache, r.cacheKey(res.MD5), res, r.cacheTTL); err != nil {
		r.logger.Warn().Err(err).Str("md5", res.MD5).Msg("failed to cache result")
	}
}

func (r *Runner) logDiagnostics(res *classify.Result) {
	for _, d := range res.Diagnostics {
		r.logger.Warn().Str("log_file", res.LogFile).Str("field", d.Field).Msg(d.Message)
	}
}

// SortResults 按 start_time 升序排序，缺失的排在最后，同值按 log_file 排序.
func SortResults(results []*classify.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]

		switch {
		case a.StartTime != nil && b.StartTime != nil && *a.StartTime != *b.StartTime:
			return *a.StartTime < *b.StartTime
		case a.StartTime != nil && b.StartTime == nil:
			return true
		case a.StartTime == nil && b.StartTime != nil:
			return false
		default:
			return a.LogFile < b.LogFile
		}
	})
}

// Err 全部失败时返回汇总错误.
func (rep *Report) Err() error {
	if len(rep.Failures) == 0 || len(rep.Results) > 0 {
		return nil
	}

	errs := make([]error, 0, len(rep.Failures))
	for _, f := range rep.Failures {
		errs = append(errs, f)
	}

	return fmt.Errorf("all %d logs failed: %w", len(rep.Failures), errors.Join(errs...))
}
