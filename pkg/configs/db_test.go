package configs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeisme/iolabel/pkg/configs"
)

func TestDBDSN(t *testing.T) {
	cases := []struct {
		name string
		cfg  configs.DBConfig
		want string
	}{
		{
			name: "sqlite adds suffix",
			cfg:  configs.DBConfig{Type: configs.SQLite, Database: "index"},
			want: "file:index.db",
		},
		{
			name: "sqlite keeps suffix",
			cfg:  configs.DBConfig{Type: configs.SQLite, Database: "/var/lib/iolabel/index.db"},
			want: "file:/var/lib/iolabel/index.db",
		},
		{
			name: "postgres alias",
			cfg: configs.DBConfig{
				Type: configs.Pg, Host: "db", Port: 5432, User: "u", Password: "p", Database: "iolabel", SSLMode: "disable",
			},
			want: "host=db port=5432 user=u password=p dbname=iolabel sslmode=disable",
		},
		{
			name: "mariadb",
			cfg:  configs.DBConfig{Type: configs.MariaDB, Host: "db", Port: 3306, User: "u", Password: "p", Database: "iolabel"},
			want: "u:p@tcp(db:3306)/iolabel?charset=utf8mb4&parseTime=True&loc=UTC",
		},
		{
			name: "unknown",
			cfg:  configs.DBConfig{Type: "oracle"},
			want: "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cfg.GetDSN())
		})
	}
}
