//go:build !no_sqlite && !cgo

package db

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/iolabel/pkg/configs"
)

// CGO_ENABLED=0 时回退到纯 Go 的 modernc 驱动，方便静态编译.
func sqliteDialector(dsn string) gorm.Dialector {
	return &sqlite.Dialector{DSN: dsn}
}

func init() {
	RegisterDialectorFactory(sqliteDialector, configs.SQLite)
}
