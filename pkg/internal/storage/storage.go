// Package storage 聚合索引数据库、对象存储、KV 和消息队列客户端，按需初始化.
//
// Example:
//
//	mgr, err := storage.Init(ctx, configs.GetConfig(), storage.Options{DB: true, KV: true})
//	if err != nil {
//	    // 处理错误
//	}
//	defer mgr.Close()
//
//	dbClient := mgr.GetDBClient()
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/iolabel/pkg/configs"
	dbc "github.com/yeisme/iolabel/pkg/internal/storage/db"
	kvc "github.com/yeisme/iolabel/pkg/internal/storage/kv"
	mqc "github.com/yeisme/iolabel/pkg/internal/storage/mq"
	s3c "github.com/yeisme/iolabel/pkg/internal/storage/s3"
	nlog "github.com/yeisme/iolabel/pkg/log"
)

// Manager 聚合所有存储资源，未启用的为 nil.
type Manager struct {
	S3 *s3c.Client
	DB *dbc.Client
	KV *kvc.Client
	MQ *mqc.Client
}

// Options 选择需要初始化的存储.
type Options struct {
	DB bool
	S3 bool
	KV bool
	MQ bool
}

// Init 按 opts 初始化存储. 任一存储失败时关闭已打开的连接并返回错误.
func Init(ctx context.Context, cfg *configs.AppConfig, opts Options) (*Manager, error) {
	m := &Manager{}

	if opts.DB {
		dbi, err := dbc.New(ctx, cfg.DB, dbc.Options{Metrics: cfg.Metrics.Enabled, Debug: cfg.Server.Debug})
		if err != nil {
			return nil, fmt.Errorf("init index database: %w", err)
		}

		m.DB = dbi
	}

	if opts.S3 {
		s3i, err := s3c.New(ctx, cfg.S3, cfg.CircuitBreaker)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("init object storage: %w", err)
		}

		m.S3 = s3i
	}

	if opts.KV {
		kvi, err := kvc.NewClient(ctx, cfg.KV)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("init kv store: %w", err)
		}

		m.KV = kvi
	}

	if opts.MQ {
		mqi, err := mqc.New(ctx, cfg.MQ, cfg.Metrics.Enabled)
		if err != nil {
			_ = m.Close()
			return nil, fmt.Errorf("init message queue: %w", err)
		}

		m.MQ = mqi
	}

	nlog.Logger().Debug().
		Bool("db", m.DB != nil).
		Bool("s3", m.S3 != nil).
		Bool("kv", m.KV != nil).
		Bool("mq", m.MQ != nil).
		Msg("storage manager initialized")

	return m, nil
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取消息队列客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close 关闭所有已打开的连接.
func (m *Manager) Close() error {
	var errs []error

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	return errors.Join(errs...)
}
