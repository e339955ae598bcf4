//go:build !no_mysql

package db

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/yeisme/iolabel/pkg/configs"
)

// 未显式指定 size 的字符串列使用该长度，保证 utf8mb4 下仍可建索引.
const mysqlStringSize = 191

func mysqlDialector(dsn string) gorm.Dialector {
	return mysql.New(mysql.Config{
		DSN:                       dsn,
		DefaultStringSize:         mysqlStringSize,
	})
}

func init() {
	RegisterDialectorFactory(mysqlDialector, configs.MySQL, configs.MariaDB)
}
