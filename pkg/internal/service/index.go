// Package service 提供分类索引的读写服务.
package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/iolabel/pkg/classify"
	ctxPkg "github.com/yeisme/iolabel/pkg/context"
	"github.com/yeisme/iolabel/pkg/internal/model"
	"github.com/yeisme/iolabel/pkg/internal/storage/db"
	"github.com/yeisme/iolabel/pkg/internal/types"
)

var (
	// ErrNoIndex 未配置索引数据库.
	ErrNoIndex = errors.New("index database not configured (set db.enabled)")
	// ErrNotFound 索引中不存在该 md5.
	ErrNotFound = errors.New("classification not found")
)

const (
	saveBatchSize    = 200
	hashChunkSize    = 500
	defaultListLimit = 1000
	topApplications  = 20
)

// upsertColumns md5 冲突时覆盖的列.
var upsertColumns = []string{
	"log_file",
	"application",
	"compute_system",
	"file_system",
	"read_or_write",
	"shared_or_fpp",
	"date",
	"start_time",
	"diagnostics_json",
	"updated_at",
}

// IndexService 基于 model.Classification 表的索引服务.
type IndexService struct {
	dbClient *db.Client
}

// NewIndexService 从 context 中的存储管理器获取数据库客户端.
func NewIndexService(c context.Context) *IndexService {
	return &IndexService{dbClient: ctxPkg.GetDBClient(c)}
}

// NewIndexServiceWithClient 直接使用给定客户端.
func NewIndexServiceWithClient(dbc *db.Client) *IndexService {
	return &IndexService{dbClient: dbc}
}

func (s *IndexService) db(ctx context.Context) (*gorm.DB, error) {
	if s.dbClient == nil || s.dbClient.DB == nil {
		return nil, ErrNoIndex
	}

	return s.dbClient.GetDB().WithContext(ctx), nil
}

// Save 以 md5 为键写入或更新分类结果，返回写入条数. 同一批中重复的 md5 以最后一条为准.
func (s *IndexService) Save(ctx context.Context, results []*classify.Result) (int, error) {
	dbx, err := s.db(ctx)
	if err != nil {
		return 0, err
	}

	pos := make(map[string]int, len(results))
	rows := make([]*model.Classification, 0, len(results))

	for _, r := range results {
		row, err := model.FromResult(r)
		if err != nil {
			return 0, err
		}

		if i, ok := pos[row.MD5]; ok {
			rows[i] = row
			continue
		}

		pos[row.MD5] = len(rows)
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return 0, nil
	}

	err = dbx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "md5"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).CreateInBatches(rows, saveBatchSize).Error
	if err != nil {
		return 0, fmt.Errorf("save classifications: %w", err)
	}

	return len(rows), nil
}

// List 按条件查询，按 start_time 升序（缺失的排在最后），同值按 log_file.
func (s *IndexService) List(ctx context.Context, q types.ListQuery) (types.ListResponse[model.Classification], error) {
	var out types.ListResponse[model.Classification]

	dbx, err := s.db(ctx)
	if err != nil {
		return out, err
	}

	tx := dbx.Model(&model.Classification{})

	for _, f := range []struct{ col, val string }{
		{"compute_system", q.ComputeSystem},
		{"file_system", q.FileSystem},
		{"read_or_write", q.ReadOrWrite},
		{"shared_or_fpp", q.SharedOrFPP},
		{"application", q.Application},
	} {
		if f.val != "" {
			tx = tx.Where(f.col+" = ?", f.val)
		}
	}

	if q.Since != nil {
		tx = tx.Where("start_time >= ?", *q.Since)
	}

	if q.Until != nil {
		tx = tx.Where("start_time <= ?", *q.Until)
	}

	if err := tx.Count(&out.Total).Error; err != nil {
		return out, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	err = tx.Order("start_time IS NULL").
		Order("start_time").
		Order("log_file").
		Limit(limit).
		Offset(q.Offset).
		Find(&out.Items).Error
	if err != nil {
		return out, err
	}

	return out, nil
}

// Get 按 md5 查询.
func (s *IndexService) Get(ctx context.Context, md5 string) (*model.Classification, error) {
	dbx, err := s.db(ctx)
	if err != nil {
		return nil, err
	}

	var row model.Classification
	if err := dbx.Where("md5 = ?", md5).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, md5)
		}

		return nil, err
	}

	return &row, nil
}

// Summary 统计各标签的记录数.
func (s *IndexService) Summary(ctx context.Context) (types.IndexSummary, error) {
	var sum types.IndexSummary

	dbx, err := s.db(ctx)
	if err != nil {
		return sum, err
	}

	var agg struct {
		Total int64  `gorm:"column:total"`
		First *int64 `gorm:"column:first_start"`
		Last  *int64 `gorm:"column:last_start"`
	}

	err = dbx.Model(&model.Classification{}).
		Select("COUNT(*) AS total, MIN(start_time) AS first_start, MAX(start_time) AS last_start").
		Scan(&agg).Error
	if err != nil {
		return sum, err
	}

	sum.Total = agg.Total
	sum.FirstStartTime = agg.First
	sum.LastStartTime = agg.Last

	groups := []struct {
		column string
		dst    *[]types.LabelCount
		limit  int
	}{
		{"compute_system", &sum.ByComputeSystem, 0},
		{"file_system", &sum.ByFileSystem, 0},
		{"read_or_write", &sum.ByReadOrWrite, 0},
		{"shared_or_fpp", &sum.BySharedOrFPP, 0},
		{"application", &sum.ByApplication, topApplications},
	}

	for _, g := range groups {
		if err := s.countBy(dbx, g.column, g.limit, g.dst); err != nil {
			return sum, fmt.Errorf("count by %s: %w", g.column, err)
		}
	}

	return sum, nil
}

func (s *IndexService) countBy(dbx *gorm.DB, column string, limit int, dst *[]types.LabelCount) error {
	// application 可能为 NULL，统一归为空串
	label := fmt.Sprintf("COALESCE(%s, '')", column)

	tx := dbx.Model(&model.Classification{}).
		Select(label + " AS label, COUNT(*) AS cnt").
		Group(label).
		Order("cnt DESC").
		Order("label")

	if limit > 0 {
		tx = tx.Limit(limit)
	}

	*dst = []types.LabelCount{}

	return tx.Scan(dst).Error
}

// KnownHashes 返回 sums 中已存在于索引的 md5 集合.
func (s *IndexService) KnownHashes(ctx context.Context, sums []string) (map[string]struct{}, error) {
	dbx, err := s.db(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(sums))

	for start := 0; start < len(sums); start += hashChunkSize {
		end := min(start+hashChunkSize, len(sums))

		var found []string
		if err := dbx.Model(&model.Classification{}).Where("md5 IN ?", sums[start:end]).Pluck("md5", &found).Error; err != nil {
			return nil, err
		}

		for _, h := range found {
			known[h] = struct{}{}
		}
	}

	return known, nil
}
