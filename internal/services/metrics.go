package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector exposes the serving and training metrics on the
// Prometheus registry. A nil collector is valid and records nothing,
// which keeps tests free of registry setup.
type MetricsCollector struct {
	recommendationRequests *prometheus.CounterVec
	cacheHits              prometheus.Counter
	cacheMisses            prometheus.Counter
	trainingRuns           *prometheus.CounterVec
	trainingDuration       prometheus.Histogram
	snapshotUsers          prometheus.Gauge
	snapshotItems          prometheus.Gauge
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		recommendationRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Recommendation requests served, by model used",
		}, []string{"model"}),
		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recommendation_cache_hits_total",
			Help: "Result cache hits",
		}),
		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "recommendation_cache_misses_total",
			Help: "Result cache misses",
		}),
		trainingRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "model_training_runs_total",
			Help: "Model training runs, by outcome",
		}, []string{"status"}),
		trainingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "model_training_duration_seconds",
			Help:    "Wall-clock duration of training runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		snapshotUsers: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "model_snapshot_users",
			Help: "Users covered by the active model snapshot",
		}),
		snapshotItems: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "model_snapshot_items",
			Help: "Items covered by the active model snapshot",
		}),
	}
}

func (m *MetricsCollector) RecordRecommendation(model string) {
	if m == nil {
		return
	}
	m.recommendationRequests.WithLabelValues(model).Inc()
}

func (m *MetricsCollector) RecordCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

func (m *MetricsCollector) RecordCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

func (m *MetricsCollector) RecordTrainingRun(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.trainingRuns.WithLabelValues(status).Inc()
	if status == "completed" {
		m.trainingDuration.Observe(duration.Seconds())
	}
}

func (m *MetricsCollector) RecordSnapshot(users, items int) {
	if m == nil {
		return
	}
	m.snapshotUsers.Set(float64(users))
	m.snapshotItems.Set(float64(items))
}
