// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordScheduleQuery(userCount int)
	RecordQueryLatency(duration time.Duration)
	RecordQueryTimeout()
	RecordConflictRejection()
	RecordInvariantViolation()
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	scheduleQueries    prometheus.Counter
	queryUserCount     prometheus.Histogram
	queryLatency       prometheus.Histogram
	queryTimeouts      prometheus.Counter
	conflictRejections prometheus.Counter
	invariantViolation prometheus.Counter
	httpStatus         *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		scheduleQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sukima_schedule_queries_total",
			Help: "スケジュール照会の合計数",
		}),
		queryUserCount: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sukima_schedule_query_users",
			Help:    "1回の照会で指定されたユーザー数",
			Buckets: []float64{1, 2, 3, 5, 10},
		}),
		queryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sukima_schedule_query_latency_seconds",
			Help:    "スケジュール照会のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		queryTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sukima_schedule_query_timeouts_total",
			Help: "制限時間超過で打ち切られた照会の合計数",
		}),
		conflictRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sukima_schedule_conflicts_total",
			Help: "重複により拒否された時間帯登録の合計数",
		}),
		invariantViolation: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sukima_invariant_violations_total",
			Help: "照会中に検出された同順位重複の合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sukima_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.scheduleQueries,
		c.queryUserCount,
		c.queryLatency,
		c.queryTimeouts,
		c.conflictRejections,
		c.invariantViolation,
		c.httpStatus,
	)

	return c
}

// RecordScheduleQuery は照会の実行とユーザー数を記録する。
func (c *Collector) RecordScheduleQuery(userCount int) {
	c.scheduleQueries.Inc()
	c.queryUserCount.Observe(float64(userCount))
}

// RecordQueryLatency は照会のレイテンシを記録する。
func (c *Collector) RecordQueryLatency(duration time.Duration) {
	c.queryLatency.Observe(duration.Seconds())
}

// RecordQueryTimeout は制限時間超過を記録する。
func (c *Collector) RecordQueryTimeout() {
	c.queryTimeouts.Inc()
}

// RecordConflictRejection は重複による登録拒否を記録する。
func (c *Collector) RecordConflictRejection() {
	c.conflictRejections.Inc()
}

// RecordInvariantViolation は同順位重複の検出を記録する。
func (c *Collector) RecordInvariantViolation() {
	c.invariantViolation.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
