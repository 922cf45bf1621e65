// metrics.go — Prometheus HTTP метрики для Doc Gateway.
// Регистрирует метрики: dg_http_requests_total, dg_http_request_duration_seconds,
// dg_operations_total.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	// httpRequestsTotal — общее количество HTTP-запросов.
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dg_http_requests_total",
			Help: "Общее количество HTTP-запросов к Doc Gateway",
		},
		[]string{"method", "path", "status"},
	)

	// httpRequestDuration — гистограмма длительности HTTP-запросов.
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dg_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к Doc Gateway в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// operationsTotal — счётчик доменных операций по исходам.
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dg_operations_total",
			Help: "Количество доменных операций Doc Gateway по исходам",
		},
		[]string{"operation", "outcome"},
	)
)

// ObserveOperation фиксирует исход доменной операции
// (upload, index, query; success или failure).
func ObserveOperation(operation string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
// Записывает количество запросов и длительность для каждого endpoint.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Нормализуем путь для лейблов метрик
			// (динамические сегменты заменяются на {id})
			normalizedPath := normalizePath(r.URL.Path)

			wrapped := newMetricsResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, normalizedPath, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, normalizedPath).Observe(duration)
		})
	}
}

// metricsResponseWriter — обёртка для перехвата статус-кода.
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newMetricsResponseWriter(w http.ResponseWriter) *metricsResponseWriter {
	return &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *metricsResponseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// normalizePath заменяет динамические сегменты пути на {id} для
// предотвращения взрывного роста кардинальности метрик.
// /api/v1/docs/42 → /api/v1/docs/{id}
func normalizePath(path string) string {
	// Статические пути — возвращаем как есть
	switch path {
	case "/health/live", "/health/ready", "/metrics",
		"/api/v1/docs/upload",
		"/api/v1/docs/status",
		"/api/v1/docs/query",
		"/api/v1/docs/index",
		"/api/v1/storage/config",
		"/api/v1/storage/smoke":
		return path
	}

	// Динамические пути с числовым ID
	const docsPrefix = "/api/v1/docs/"
	if strings.HasPrefix(path, docsPrefix) && len(path) > len(docsPrefix) {
		return docsPrefix + "{id}"
	}

	return path
}
