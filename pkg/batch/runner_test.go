package batch_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/iolabel/pkg/batch"
	"github.com/yeisme/iolabel/pkg/cache"
	"github.com/yeisme/iolabel/pkg/classify"
	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/darshan"
	"github.com/yeisme/iolabel/pkg/internal/storage/kv"
	"github.com/yeisme/iolabel/pkg/metrics"
)

// traceText 生成 darshan-parser 风格的文本；start < 0 时省略 start_time.
func traceText(start int64, nprocs, files int) string {
	var sb strings.Builder

	sb.WriteString("# exe: /opt/bench/ior -a POSIX\n")
	fmt.Fprintf(&sb, "# nprocs: %d\n", nprocs)

	if start >= 0 {
		fmt.Fprintf(&sb, "# start_time: %d\n", start)
	}

	sb.WriteString("# mount entry:\t/scratch3\tlustre\n")
	sb.WriteString("# POSIX module data\n")

	for i := range files {
		fmt.Fprintf(&sb, "POSIX\t%d\t%d\tPOSIX_BYTES_WRITTEN\t1000\t/scratch3/out.%d\t/scratch3\tlustre\n", i, 100+i, i)
	}

	return sb.String()
}

type countingReader struct {
	darshan.Reader
	calls atomic.Int32
}

func (c *countingReader) Read(ctx context.Context, path string) (*darshan.RecordSet, error) {
	c.calls.Add(1)
	return c.Reader.Read(ctx, path)
}

func newClassifier(t *testing.T) *classify.Classifier {
	t.Helper()

	c, err := classify.New(configs.ClassifyConfig{Timezone: "UTC", MountToFsName: configs.DefaultMountRules})
	require.NoError(t, err)

	return c
}

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func writeFixtures(t *testing.T) (string, []string) {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"c.txt":       traceText(300, 4, 4),
		"a.txt":       traceText(100, 4, 4),
		"b.txt":       traceText(100, 4, 1),
		"nostart.txt": traceText(-1, 8, 1),
		"broken.txt":  "not a darshan trace\n",
	}

	var paths []string

	for name, body := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
		paths = append(paths, p)
	}

	paths = append(paths, filepath.Join(dir, "missing.txt"))

	return dir, paths
}

func TestRunDeterministicAcrossThreads(t *testing.T) {
	_, paths := writeFixtures(t)
	classifier := newClassifier(t)

	var reports []*batch.Report

	for _, threads := range []int{1, 2, 8} {
		r := batch.New(darshan.TextReader{}, classifier, batch.WithThreads(threads), batch.WithLogger(nopLogger()))
		reports = append(reports, r.Run(context.Background(), paths))
	}

	for _, rep := range reports[1:] {
		assert.Equal(t, reports[0].Results, rep.Results)
		assert.Len(t, rep.Failures, 2)
	}

	rep := reports[0]
	require.Len(t, rep.Results, 4)

	var order []string
	for _, res := range rep.Results {
		order = append(order, res.LogFile)
	}

	// start_time 升序，同值按文件名，缺失的最后
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt", "nostart.txt"}, order)

	assert.Equal(t, classify.PatternFPP, rep.Results[0].SharedOrFPP)
	assert.Equal(t, classify.PatternUnknown, rep.Results[1].SharedOrFPP)
	assert.Equal(t, "scratch3", rep.Results[0].FileSystem)
	assert.Equal(t, "edison", rep.Results[0].ComputeSystem)
	assert.Equal(t, "ior", rep.Results[0].ApplicationOrEmpty())
	assert.Equal(t, "1970-01-01", rep.Results[0].DateOrEmpty())
	// start_time 缺失时 date 也缺失
	assert.Len(t, rep.Results[3].Diagnostics, 2)

	reasons := map[string]string{}
	for _, f := range rep.Failures {
		reasons[filepath.Base(f.Path)] = f.Reason
	}

	assert.Equal(t, map[string]string{
		"broken.txt":  metrics.ReasonEmpty,
		"missing.txt": metrics.ReasonHash,
	}, reasons)

	require.NoError(t, rep.Err())
}

func TestRunAllFailed(t *testing.T) {
	r := batch.New(darshan.TextReader{}, newClassifier(t), batch.WithLogger(nopLogger()))

	rep := r.Run(context.Background(), []string{filepath.Join(t.TempDir(), "nope.darshan")})
	assert.Empty(t, rep.Results)
	require.Error(t, rep.Err())

	empty := r.Run(context.Background(), nil)
	require.NoError(t, empty.Err())
}

func TestRunUsesCache(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.txt")
	require.NoError(t, os.WriteFile(first, []byte(traceText(100, 4, 4)), 0o600))

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, configs.KVConfig{})
	require.NoError(t, err)

	reader := &countingReader{Reader: darshan.TextReader{}}
	c := cache.NewCache(store, configs.DefaultCachePrefix)
	r := batch.New(reader, newClassifier(t), batch.WithCache(c, time.Hour), batch.WithLogger(nopLogger()))

	rep := r.Run(context.Background(), []string{first})
	require.Len(t, rep.Results, 1)
	assert.Equal(t, int32(1), reader.calls.Load())

	// 相同内容、不同文件名：命中缓存，但 log_file 使用当前路径
	second := filepath.Join(dir, "second.txt")
	require.NoError(t, os.WriteFile(second, []byte(traceText(100, 4, 4)), 0o600))

	rep = r.Run(context.Background(), []string{second})
	require.Len(t, rep.Results, 1)
	assert.Equal(t, int32(1), reader.calls.Load())
	assert.Equal(t, "second.txt", rep.Results[0].LogFile)
	assert.Equal(t, classify.ModeWrite, rep.Results[0].ReadOrWrite)

	keys, err := c.Keys(context.Background())
	require.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestRunCanceled(t *testing.T) {
	_, paths := writeFixtures(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := batch.New(darshan.TextReader{}, newClassifier(t), batch.WithThreads(4), batch.WithLogger(nopLogger())).Run(ctx, paths)
	assert.Empty(t, rep.Results)
	assert.Len(t, rep.Failures, len(paths))
}

func TestSortResults(t *testing.T) {
	ts := func(v int64) *int64 { return &v }

	results := []*classify.Result{
		{LogFile: "z", StartTime: nil},
		{LogFile: "b", StartTime: ts(5)},
		{LogFile: "a", StartTime: nil},
		{LogFile: "a", StartTime: ts(5)},
		{LogFile: "x", StartTime: ts(1)},
	}

	batch.SortResults(results)

	var got []string
	for _, r := range results {
		got = append(got, r.LogFile)
	}

	assert.Equal(t, []string{"x", "a", "b", "a", "z"}, got)
}
