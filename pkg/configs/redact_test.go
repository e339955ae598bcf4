package configs_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/iolabel/pkg/configs"
)

func TestRedacted(t *testing.T) {
	v := viper.New()
	v.Set("db.password", "hunter2")
	v.Set("kv.redis.password", "")

	cfg, err := configs.Load(v)
	require.NoError(t, err)

	red := cfg.Redacted()
	assert.Equal(t, "******", red.DB.Password)
	assert.Equal(t, "******", red.S3.SecretAccessKey)
	assert.Empty(t, red.KV.Redis.Password)

	// 原配置不变
	assert.Equal(t, "hunter2", cfg.DB.Password)
}

func TestLoadRejectsBadMountPattern(t *testing.T) {
	v := viper.New()
	v.Set("classify.mount_to_fsname", []map[string]string{{"pattern": "/scratch[", "fsname": "scratch"}})

	_, err := configs.Load(v)
	require.Error(t, err)
}

func TestEventsAllows(t *testing.T) {
	cfg, err := configs.Load(viper.New())
	require.NoError(t, err)

	assert.True(t, cfg.Events.Allows("iolabel.log.classified"))
	assert.True(t, cfg.Events.Allows("iolabel.other"))

	cfg.Events.Index.Updated = false
	assert.False(t, cfg.Events.Allows("iolabel.index.updated"))

	cfg.Events.Enabled = false
	assert.False(t, cfg.Events.Allows("iolabel.log.classified"))
}
