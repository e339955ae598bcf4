//go:build !no_postgres

package db

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yeisme/iolabel/pkg/configs"
)

// 索引写入都是短事务，关闭预编译缓存以兼容 pgbouncer 的事务池模式.
func postgresDialector(dsn string) gorm.Dialector {
	return postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	})
}

func init() {
	RegisterDialectorFactory(postgresDialector, configs.PostgreSQL, configs.Postgres, configs.Pg)
}
