// Package metrics 暴露 Prometheus 指标（GET /metrics）
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SyncRuns 同步任务次数，按类型与结果统计
var SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "phimhub_sync_runs_total",
	Help: "Catalog sync runs by kind and result.",
}, []string{"kind", "result"})

// SyncRecords 同步写入的记录数，按结果统计（inserted/updated/rejected/write_failed）
var SyncRecords = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "phimhub_sync_records_total",
	Help: "Catalog records processed by outcome.",
}, []string{"outcome"})

// SyncDropped 因已有任务运行而被丢弃的触发次数
var SyncDropped = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "phimhub_sync_triggers_dropped_total",
	Help: "Sync triggers dropped because another run was active.",
}, []string{"kind"})

// UpstreamFetchDuration 上游请求耗时
var UpstreamFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "phimhub_upstream_fetch_duration_seconds",
	Help:    "Upstream catalog request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"op", "result"})

// HTTPRequests HTTP 请求计数
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "phimhub_http_requests_total",
	Help: "Total HTTP requests handled.",
}, []string{"method", "path", "status"})

// HTTPDuration HTTP 请求耗时
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "phimhub_http_request_duration_seconds",
	Help:    "HTTP request latency in seconds.",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "path"})

// ObserveHTTP 记录一次 HTTP 请求
func ObserveHTTP(method, path string, status int, latency time.Duration) {
	HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, path).Observe(latency.Seconds())
}

// ObserveFetch 记录一次上游请求
func ObserveFetch(op string, err error, latency time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	UpstreamFetchDuration.WithLabelValues(op, result).Observe(latency.Seconds())
}

// Handler Prometheus 抓取端点
func Handler() http.Handler {
	return promhttp.Handler()
}
