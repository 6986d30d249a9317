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
// 外部APIクライアントやサービス層から利用する。
type MetricsCollector interface {
	RecordUpstreamSuccess(source string)
	RecordUpstreamFailure(source string, reason string)
	RecordUpstreamLatency(source string, duration time.Duration)
	RecordHTTPStatus(statusCode int)
	RecordSightingCreated()
	RecordSightingDeleted()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	upstreamSuccess  *prometheus.CounterVec
	upstreamFail     *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec
	httpStatus       *prometheus.CounterVec
	sightingsCreated prometheus.Counter
	sightingsDeleted prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		upstreamSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "birdjournal_upstream_success_total",
			Help: "外部API呼び出し成功の合計数（source別）",
		}, []string{"source"}),
		upstreamFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "birdjournal_upstream_fail_total",
			Help: "外部API呼び出し失敗の合計数（source別）",
		}, []string{"source"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "birdjournal_upstream_latency_seconds",
			Help:    "外部API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "birdjournal_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		sightingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "birdjournal_sightings_created_total",
			Help: "作成された観察記録の合計数",
		}),
		sightingsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "birdjournal_sightings_deleted_total",
			Help: "削除された観察記録の合計数",
		}),
	}

	reg.MustRegister(
		c.upstreamSuccess,
		c.upstreamFail,
		c.upstreamLatency,
		c.httpStatus,
		c.sightingsCreated,
		c.sightingsDeleted,
	)

	return c
}

// RecordUpstreamSuccess は外部API呼び出し成功を記録する。
// sourceには"ebird_taxonomy"、"ebird_nearby"、"geocoder"等を指定する。
func (c *Collector) RecordUpstreamSuccess(source string) {
	c.upstreamSuccess.WithLabelValues(source).Inc()
}

// RecordUpstreamFailure は外部API呼び出し失敗を記録する。
func (c *Collector) RecordUpstreamFailure(source string, reason string) {
	c.upstreamFail.WithLabelValues(source).Inc()
}

// RecordUpstreamLatency は外部API呼び出しのレイテンシを記録する。
func (c *Collector) RecordUpstreamLatency(source string, duration time.Duration) {
	c.upstreamLatency.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSightingCreated は観察記録の作成を記録する。
func (c *Collector) RecordSightingCreated() {
	c.sightingsCreated.Inc()
}

// RecordSightingDeleted は観察記録の削除を記録する。
func (c *Collector) RecordSightingDeleted() {
	c.sightingsDeleted.Inc()
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
