// Package metrics exposes Prometheus collectors for the HTTP layer and the
// wellbeing engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "resilience"

// Metrics 持有独立的 registry，测试之间互不干扰。所有方法对 nil 接收者安全。
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	scoreMutations *prometheus.CounterVec
	scoreRejected  *prometheus.CounterVec
	cascades       *prometheus.CounterVec
}

// New 创建并注册全部指标
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
			},
			[]string{"method", "route"},
		),
		scoreMutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "wellbeing",
				Name:      "score_mutations_total",
				Help:      "Habit score writes that triggered a wellbeing recompute.",
			},
			[]string{"op"},
		),
		scoreRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "wellbeing",
				Name:      "score_rejections_total",
				Help:      "Habit score writes rejected before any change was made.",
			},
			[]string{"reason"},
		),
		cascades: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "wellbeing",
				Name:      "soft_delete_cascades_total",
				Help:      "Soft delete cascades applied, by root entity.",
			},
			[]string{"root"},
		),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.scoreMutations,
		m.scoreRejected,
		m.cascades,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler returns an HTTP handler exposing the registered collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest 记录一次 HTTP 请求
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ScoreMutation 记录 create/update/delete 打分
func (m *Metrics) ScoreMutation(op string) {
	if m == nil {
		return
	}
	m.scoreMutations.WithLabelValues(op).Inc()
}

// ScoreRejected 记录被拒绝的打分写入
func (m *Metrics) ScoreRejected(reason string) {
	if m == nil {
		return
	}
	m.scoreRejected.WithLabelValues(reason).Inc()
}

// Cascade 记录一次软删除级联
func (m *Metrics) Cascade(root string) {
	if m == nil {
		return
	}
	m.cascades.WithLabelValues(root).Inc()
}
