package metrics_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/iolabel/pkg/configs"
	"github.com/yeisme/iolabel/pkg/metrics"
)

func TestWriteTextfile(t *testing.T) {
	metrics.LogsClassified.WithLabelValues("write", "fpp", "edison").Inc()
	metrics.ClassifyFailures.WithLabelValues(metrics.ReasonNProcs).Inc()

	path := filepath.Join(t.TempDir(), "iolabel.prom")
	require.NoError(t, metrics.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `iolabel_logs_classified_total{compute_system="edison",read_or_write="write",shared_or_fpp="fpp"}`)
	assert.Contains(t, string(data), `iolabel_classify_failures_total{reason="invalid_nprocs"}`)
}

func TestWriteTextfileDisabled(t *testing.T) {
	require.NoError(t, metrics.WriteTextfile(""))
}

func TestBuildInfo(t *testing.T) {
	metrics.InitMetrics(configs.MetricsConfig{
		Enabled:     true,
		ServiceName: "iolabel",
		Labels:      map[string]string{"site": "nersc"},
	})

	path := filepath.Join(t.TempDir(), "iolabel.prom")
	require.NoError(t, metrics.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `iolabel_build_info{service="iolabel",site="nersc",version="`+configs.AppVersion+`"} 1`)
}
