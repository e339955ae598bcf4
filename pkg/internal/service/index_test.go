package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/iolabel/pkg/classify"
	"github.com/yeisme/iolabel/pkg/configs"
	ctxPkg "github.com/yeisme/iolabel/pkg/context"
	"github.com/yeisme/iolabel/pkg/internal/service"
	"github.com/yeisme/iolabel/pkg/internal/storage"
	"github.com/yeisme/iolabel/pkg/internal/storage/db"
	"github.com/yeisme/iolabel/pkg/internal/types"
)

func openIndex(t *testing.T) *db.Client {
	t.Helper()

	cli, err := db.New(context.Background(), configs.DBConfig{
		Type:         configs.SQLite,
		Database:     filepath.Join(t.TempDir(), "index.db"),
		MaxIdleConns: 1,
	}, db.Options{})
	require.NoError(t, err)

	t.Cleanup(func() { _ = cli.Close() })

	return cli
}

func result(md5, logFile, system, fs string, mode classify.Mode, pattern classify.Pattern, start *int64) *classify.Result {
	app := "vpicio"

	r := &classify.Result{
		Application:   &app,
		ComputeSystem: system,
		FileSystem:    fs,
		LogFile:       logFile,
		MD5:           md5,
		ReadOrWrite:   mode,
		SharedOrFPP:   pattern,
		StartTime:     start,
	}

	if start == nil {
		r.Diagnostics = []classify.Diagnostic{{Field: classify.FieldDate, Message: "start_time is undecipherable"}}
	}

	return r
}

func ts(v int64) *int64 { return &v }

func seed(t *testing.T, svc *service.IndexService) {
	t.Helper()

	n, err := svc.Save(context.Background(), []*classify.Result{
		result("aaa", "a.darshan", "edison", "scratch3", classify.ModeWrite, classify.PatternFPP, ts(300)),
		result("bbb", "b.darshan", "cori", "cscratch", classify.ModeRead, classify.PatternShared, ts(100)),
		result("ccc", "c.darshan", "edison", "scratch1", classify.ModeWrite, classify.PatternShared, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestIndexSaveUpsert(t *testing.T) {
	svc := service.NewIndexServiceWithClient(openIndex(t))
	seed(t, svc)

	// 相同 md5 再次写入只更新
	n, err := svc.Save(context.Background(), []*classify.Result{
		result("aaa", "renamed.darshan", "edison", "scratch3", classify.ModeWrite, classify.PatternUnknown, ts(300)),
		result("aaa", "renamed-again.darshan", "edison", "scratch3", classify.ModeWrite, classify.PatternUnknown, ts(300)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	row, err := svc.Get(context.Background(), "aaa")
	require.NoError(t, err)
	assert.Equal(t, "renamed-again.darshan", row.LogFile)
	assert.Equal(t, string(classify.PatternUnknown), row.SharedOrFPP)

	all, err := svc.List(context.Background(), types.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)

	n, err = svc.Save(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndexList(t *testing.T) {
	svc := service.NewIndexServiceWithClient(openIndex(t))
	seed(t, svc)

	all, err := svc.List(context.Background(), types.ListQuery{})
	require.NoError(t, err)

	var order []string
	for _, r := range all.Items {
		order = append(order, r.LogFile)
	}

	// start_time 升序，缺失的最后
	assert.Equal(t, []string{"b.darshan", "a.darshan", "c.darshan"}, order)

	edison, err := svc.List(context.Background(), types.ListQuery{ComputeSystem: "edison", ReadOrWrite: "write"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), edison.Total)

	since, err := svc.List(context.Background(), types.ListQuery{Since: ts(200)})
	require.NoError(t, err)
	require.Len(t, since.Items, 1)
	assert.Equal(t, "aaa", since.Items[0].MD5)

	page, err := svc.List(context.Background(), types.ListQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "a.darshan", page.Items[0].LogFile)
}

func TestIndexGetRoundTrip(t *testing.T) {
	svc := service.NewIndexServiceWithClient(openIndex(t))
	seed(t, svc)

	row, err := svc.Get(context.Background(), "ccc")
	require.NoError(t, err)

	res, err := row.ToResult()
	require.NoError(t, err)
	assert.Nil(t, res.StartTime)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, classify.FieldDate, res.Diagnostics[0].Field)
	assert.Equal(t, "vpicio", res.ApplicationOrEmpty())

	_, err = svc.Get(context.Background(), "missing")
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestIndexSummary(t *testing.T) {
	svc := service.NewIndexServiceWithClient(openIndex(t))
	seed(t, svc)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(3), sum.Total)
	require.NotNil(t, sum.FirstStartTime)
	assert.Equal(t, int64(100), *sum.FirstStartTime)
	assert.Equal(t, int64(300), *sum.LastStartTime)
	assert.Equal(t, []types.LabelCount{{Label: "edison", Count: 2}, {Label: "cori", Count: 1}}, sum.ByComputeSystem)
	assert.Equal(t, []types.LabelCount{{Label: "shared", Count: 2}, {Label: "fpp", Count: 1}}, sum.BySharedOrFPP)
	assert.Equal(t, []types.LabelCount{{Label: "vpicio", Count: 3}}, sum.ByApplication)
}

func TestIndexKnownHashes(t *testing.T) {
	svc := service.NewIndexServiceWithClient(openIndex(t))
	seed(t, svc)

	known, err := svc.KnownHashes(context.Background(), []string{"aaa", "zzz", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"aaa": {}, "ccc": {}}, known)
}

func TestIndexWithoutDatabase(t *testing.T) {
	svc := service.NewIndexService(context.Background())

	_, err := svc.Save(context.Background(), []*classify.Result{{MD5: "x"}})
	require.ErrorIs(t, err, service.ErrNoIndex)

	// 从 context 中的存储管理器取客户端
	ctx := ctxPkg.WithStorageManager(context.Background(), &storage.Manager{DB: openIndex(t)})
	_, err = service.NewIndexService(ctx).Summary(ctx)
	require.NoError(t, err)
}
