// internal/pkg/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OrderMetrics 汇集订单核心的业务指标。
type OrderMetrics struct {
	OrdersCreated   prometheus.Counter
	OrdersCancelled prometheus.Counter
	StatusUpdates   *prometheus.CounterVec
	// OrderFailures 按失败原因细分: not_found / insufficient_stock /
	// invalid_status / invalid_transition / internal
	OrderFailures *prometheus.CounterVec

	HTTPDuration *prometheus.HistogramVec
	HTTPRequests *prometheus.CounterVec
}

// NewOrderMetrics 在默认 Registry 上注册并返回指标集合。
// 重复注册会 panic，每个进程只能调用一次。
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWith(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWith 在指定 Registerer 上注册，测试用独立 Registry。
func NewOrderMetricsWith(reg prometheus.Registerer) *OrderMetrics {
	m := &OrderMetrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emporium",
			Subsystem: "orders",
			Name:      "created_total",
			Help:      "Total number of successfully created orders.",
		}),
		OrdersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "emporium",
			Subsystem: "orders",
			Name:      "cancelled_total",
			Help:      "Total number of cancelled orders.",
		}),
		StatusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emporium",
			Subsystem: "orders",
			Name:      "status_updates_total",
			Help:      "Total number of administrative status overrides.",
		}, []string{"status"}),
		OrderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emporium",
			Subsystem: "orders",
			Name:      "failures_total",
			Help:      "Total number of failed order operations by reason.",
		}, []string{"op", "reason"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "emporium",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"handler"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "emporium",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
	}

	reg.MustRegister(
		m.OrdersCreated,
		m.OrdersCancelled,
		m.StatusUpdates,
		m.OrderFailures,
		m.HTTPDuration,
		m.HTTPRequests,
	)
	return m
}

// Handler 暴露 /metrics。
func Handler() http.Handler {
	return promhttp.Handler()
}

// InstrumentHandler 给单个路由包一层耗时与计数统计。
func (m *OrderMetrics) InstrumentHandler(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)
		m.HTTPDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		m.HTTPRequests.WithLabelValues(name, strconv.Itoa(sw.status)).Inc()
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
