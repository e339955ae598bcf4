//go:build !no_sqlite && cgo

package db

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/iolabel/pkg/configs"
)

// 启用 cgo 时使用 mattn/go-sqlite3.
func sqliteDialector(dsn string) gorm.Dialector {
	return &sqlite.Dialector{DSN: dsn}
}

func init() {
	RegisterDialectorFactory(sqliteDialector, configs.SQLite)
}
