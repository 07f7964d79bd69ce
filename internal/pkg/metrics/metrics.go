package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 座席ロック取得の総数（status: success, conflict, show_not_found, upstream_error, error）
	SeatLocksTotal *prometheus.CounterVec

	// 予約確定の総数（status: success, conflict, show_not_found, upstream_error, error）
	BookingsTotal *prometheus.CounterVec

	// 期限切れロック回収数
	ExpiredLocksReaped prometheus.Counter

	// 通知配信の総数（status: success, failed, dropped）
	NotificationDispatchTotal *prometheus.CounterVec

	// 分散ロックの操作時間（operation: acquire/release, status: success/failed）
	DistributedLockDuration *prometheus.HistogramVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		SeatLocksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_locks_total",
				Help: "Total number of seat lock acquisition attempts",
			},
			[]string{"status"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Total number of booking confirmation attempts",
			},
			[]string{"status"},
		),
		ExpiredLocksReaped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "expired_seat_locks_reaped_total",
				Help: "Total number of expired seat locks removed by the reaper",
			},
		),
		NotificationDispatchTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_dispatch_total",
				Help: "Total number of booking notification dispatch attempts",
			},
			[]string{"status"},
		),
		DistributedLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distributed_lock_duration_seconds",
				Help:    "Time spent on distributed lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
	}

	// レジストリに登録
	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.SeatLocksTotal,
		m.BookingsTotal,
		m.ExpiredLocksReaped,
		m.NotificationDispatchTotal,
		m.DistributedLockDuration,
	)

	return m
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
