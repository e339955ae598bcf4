// Package db 处理索引数据库的连接，按类型注册 GORM dialector.
package db

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	gormPrometheus "gorm.io/plugin/prometheus"

	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/internal/model"
	nlog "github.com/yeisme/iolabel/pkg/log"
)

// DialectorFactory 由 DSN 构造 dialector，各方言文件在 init 中注册，可用构建标签裁剪.
type DialectorFactory func(dsn string) gorm.Dialector

var dialectorFactories = map[configs.DBType]DialectorFactory{}

// RegisterDialectorFactory 同一个工厂可以注册到多个别名.
func RegisterDialectorFactory(factory DialectorFactory, dbTypes ...configs.DBType) {
	for _, t := range dbTypes {
		dialectorFactories[t] = factory
	}
}

// GetRegisteredDBTypes 按名称排序.
func GetRegisteredDBTypes() []configs.DBType {
	types := make([]configs.DBType, 0, len(dialectorFactories))
	for t := range dialectorFactories {
		types = append(types, t)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// Client 索引数据库连接.
type Client struct {
	*gorm.DB
}

// Options 打开数据库时的附加选项.
type Options struct {
	// Metrics 注册 GORM prometheus 插件
	Metrics bool
	// Debug 记录每条 SQL
	Debug bool
}

const (
	slowQuery = time.Second
	// 连接池指标刷新周期，单位秒
	metricsRefreshSeconds = 15
)

// New 连接数据库、配置连接池并迁移索引表.
func New(ctx context.Context, cfg configs.DBConfig, opts Options) (*Client, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      gormLogger(opts.Debug),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.GetDBType(), err)
	}

	client := &Client{DB: db}

	if err := client.configurePool(ctx, cfg); err != nil {
		_ = client.Close()
		return nil, err
	}

	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	if opts.Metrics {
		if err := client.RegisterGORMMetrics(cfg.Database); err != nil {
			_ = client.Close()
			return nil, err
		}
	}

	nlog.Component("db").Debug().
		Str("type", cfg.GetDBType()).
		Str("database", cfg.Database).
		Bool("metrics", opts.Metrics).
		Msg("index database ready")

	return client, nil
}

func dialectorFor(cfg configs.DBConfig) (gorm.Dialector, error) {
	factory, ok := dialectorFactories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported database type %q (registered: %v)", cfg.Type, GetRegisteredDBTypes())
	}

	dsn := cfg.GetDSN()
	if dsn == "" {
		return nil, fmt.Errorf("empty DSN for database type %q", cfg.Type)
	}

	return factory(dsn), nil
}

// gormLogger 把 GORM 日志写到应用 logger，慢查询和错误总是输出.
func gormLogger(debug bool) logger.Interface {
	level := logger.Warn
	if debug {
		level = logger.Info
	}

	return logger.New(nlog.Component("gorm"), logger.Config{
		SlowThreshold:             slowQuery,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func (c *Client) configurePool(ctx context.Context, cfg configs.DBConfig) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", cfg.GetDBType(), err)
	}

	return nil
}

// Migrate 创建或升级 classifications 表.
func (c *Client) Migrate(ctx context.Context) error {
	if err := c.WithContext(ctx).AutoMigrate(&model.Classification{}); err != nil {
		return fmt.Errorf("migrate index schema: %w", err)
	}

	return nil
}

func (c *Client) GetDB() *gorm.DB {
	return c.DB
}

func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// RegisterGORMMetrics 注册连接池指标到默认注册表，由 serve 的 /metrics 暴露.
func (c *Client) RegisterGORMMetrics(dbName string) error {
	err := c.Use(gormPrometheus.New(gormPrometheus.Config{
		DBName:          dbName,
		RefreshInterval: metricsRefreshSeconds,
	}))
	if err != nil {
		return fmt.Errorf("register gorm prometheus plugin: %w", err)
	}

	return nil
}
