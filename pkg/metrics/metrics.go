// Package metrics 提供监控指标功能.
// 支持Prometheus标准，收集分类、缓存与 HTTP 指标.
//
// Example:
//
//	import "github.com/yeisme/iolabel/pkg/metrics"
//
//	metrics.InitMetrics(config.Metrics)
//
//	// 记录指标
//	metrics.LogsClassified.WithLabelValues("write", "fpp", "edison").Inc()
//	metrics.ClassifyDuration.Observe(0.1)
//
//	// CLI 结束时写入 node-exporter textfile
//	_ = metrics.WriteTextfile(config.Metrics.Textfile)
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/iolabel/pkg/configs"
)

const namespace = "iolabel"

// 失败原因标签.
const (
	ReasonRead     = "read"
	ReasonHash     = "hash"
	ReasonEmpty    = "empty_trace"
	ReasonCounters = "no_counters"
	ReasonNProcs   = "invalid_nprocs"
	ReasonCanceled = "canceled"
	ReasonOther    = "other"
)

// 全局指标变量.
var (
	// LogsClassified 成功分类的日志数.
	LogsClassified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logs_classified_total",
			Help:      "Number of Darshan logs classified",
		},
		[]string{"read_or_write", "shared_or_fpp", "compute_system"},
	)

	// ClassifyFailures 分类失败数.
	ClassifyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classify_failures_total",
			Help:      "Number of Darshan logs that could not be classified",
		},
		[]string{"reason"},
	)

	// CacheHits 结果缓存命中数.
	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Number of classifications served from the result cache",
		},
	)

	// ClassifyDuration 单个日志从读取到分类完成的耗时.
	ClassifyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Time spent reading and classifying one log",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	// RequestCounter HTTP请求计数器.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP请求持续时间.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// registry Prometheus注册表.
	registry = prometheus.NewRegistry()

	runtimeOnce sync.Once
	infoOnce    sync.Once
)

func init() {
	registry.MustRegister(LogsClassified, ClassifyFailures, CacheHits, ClassifyDuration, RequestCounter, RequestDuration)
}

// InitMetrics 按配置注册 build_info 与运行时收集器（幂等）.
func InitMetrics(config configs.MetricsConfig) {
	if !config.Enabled {
		return
	}

	infoOnce.Do(func() {
		registry.MustRegister(newBuildInfo(config))
	})

	if !config.RuntimeMetrics {
		return
	}

	runtimeOnce.Do(func() {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// newBuildInfo 值恒为 1，service_name 与配置的 labels 作为常量标签.
func newBuildInfo(config configs.MetricsConfig) prometheus.GaugeFunc {
	labels := prometheus.Labels{}
	for k, v := range config.Labels {
		labels[k] = v
	}

	labels["service"] = config.ServiceName
	labels["version"] = configs.AppVersion

	return prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "build_info",
			Help:        "Build information of the running iolabel process",
			ConstLabels: labels,
		},
		func() float64 { return 1 },
	)
}

// Handler 返回 /metrics 的 HTTP 处理器. GORM 插件注册在默认注册表上，一并暴露.
func Handler() http.Handler {
	return promhttp.HandlerFor(
		prometheus.Gatherers{registry, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{Registry: registry},
	)
}

// WriteTextfile 把当前注册表写入 node-exporter textfile collector 格式的文件，path 为空时不写.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}

	return prometheus.WriteToTextfile(path, registry)
}

// GetRegistry 获取Prometheus注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}
