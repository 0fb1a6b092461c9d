package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the mining service
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight *prometheus.GaugeVec
	DBConnPoolStats  *prometheus.GaugeVec

	ActiveSessions    prometheus.Gauge
	Efficiency        prometheus.Histogram
	HeartbeatFailures prometheus.Counter
	RewardsGranted    *prometheus.CounterVec
	LimitRejections   prometheus.Counter
}

// NewMetrics creates a new metrics instance
func NewMetrics(serviceName string) *Metrics {
	return &Metrics{
		RequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mining",
				Subsystem: serviceName,
				Name:      "requests_total",
				Help:      "Total number of requests",
			},
			[]string{"method", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mining",
				Subsystem: serviceName,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		RequestsInFlight: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "mining",
				Subsystem: serviceName,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
			[]string{"method"},
		),
		DBConnPoolStats: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "mining",
				Subsystem: serviceName,
				Name:      "db_connection_pool",
				Help:      "Database connection pool statistics",
			},
			[]string{"stat"}, // stat can be: open, in_use, idle, wait_count, etc.
		),
		ActiveSessions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "mining",
				Subsystem: serviceName,
				Name:      "active_sessions",
				Help:      "Number of mining sessions with a running engine",
			},
		),
		Efficiency: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "mining",
				Subsystem: serviceName,
				Name:      "efficiency_percent",
				Help:      "Mining efficiency observed when rewards are granted",
				Buckets:   prometheus.LinearBuckets(50, 5, 11),
			},
		),
		HeartbeatFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "mining",
				Subsystem: serviceName,
				Name:      "heartbeat_failures_total",
				Help:      "Total number of failed heartbeat calls",
			},
		),
		RewardsGranted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mining",
				Subsystem: serviceName,
				Name:      "rewards_granted_total",
				Help:      "Total number of rewarded activities",
			},
			[]string{"activity_type"},
		),
		LimitRejections: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "mining",
				Subsystem: serviceName,
				Name:      "daily_limit_rejections_total",
				Help:      "Total number of activities rejected by the daily limit",
			},
		),
	}
}

// RecordDBPoolStats records database connection pool statistics
func (m *Metrics) RecordDBPoolStats(open, inUse, idle int, waitCount int64, waitDuration time.Duration) {
	m.DBConnPoolStats.WithLabelValues("open").Set(float64(open))
	m.DBConnPoolStats.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnPoolStats.WithLabelValues("idle").Set(float64(idle))
	m.DBConnPoolStats.WithLabelValues("wait_count").Set(float64(waitCount))
	m.DBConnPoolStats.WithLabelValues("wait_duration_ms").Set(float64(waitDuration.Milliseconds()))
}
