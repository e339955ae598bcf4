package configs

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// DBType 索引数据库类型，别名按方言归并.
type DBType string

const (
	PostgreSQL DBType = "postgresql"
	Postgres   DBType = "postgre"
	Pg         DBType = "pg"

	MySQL   DBType = "mysql"
	MariaDB DBType = "mariadb"

	SQLite DBType = "sqlite"
)

// DBConfig 分类结果索引库. sqlite 时 database 为文件名，其余方言为库名.
type DBConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Type         DBType `mapstructure:"type"           rule:"oneof=postgresql postgre pg mysql mariadb sqlite"`
	Host         string `mapstructure:"host"           rule:"omitempty,hostname"`
	Port         int    `mapstructure:"port"           rule:"min=1,max=65535"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"       rule:"required"`
	SSLMode      string `mapstructure:"sslmode"        rule:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns int    `mapstructure:"max_open_conns" rule:"min=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" rule:"min=0"`
}

// GetDBType 返回方言名，用于日志.
func (c *DBConfig) GetDBType() string {
	switch c.Type {
	case PostgreSQL, Postgres, Pg:
		return "PostgreSQL"
	case MySQL, MariaDB:
		return "MySQL"
	case SQLite:
		return "SQLite"
	}

	return "Unknown"
}

// GetDSN 按方言拼接连接串，类型未知时返回空串.
func (c *DBConfig) GetDSN() string {
	switch c.GetDBType() {
	case "PostgreSQL":
		return strings.Join([]string{
			"host=" + c.Host,
			"port=" + strconv.Itoa(c.Port),
			"user=" + c.User,
			"password=" + c.Password,
			"dbname=" + c.Database,
			"sslmode=" + c.SSLMode,
		}, " ")
	case "MySQL":
		addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC", c.User, c.Password, addr, c.Database)
	case "SQLite":
		name := c.Database
		if !strings.HasSuffix(name, ".db") {
			name += ".db"
		}

		return "file:" + name
	}

	return ""
}

func (c *DBConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("db.enabled", false)
	v.SetDefault("db.type", SQLite)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.database", "iolabel")
	v.SetDefault("db.sslmode", "disable")
	// 0 表示不限制
	v.SetDefault("db.max_open_conns", 0)
	v.SetDefault("db.max_idle_conns", 5)
}
