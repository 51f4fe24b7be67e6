// Package metrics exposes Prometheus metrics for the dashboard.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "forecast_dashboard"

// Collector records inbound HTTP requests and dashboard activity.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	uploadTotal     *prometheus.CounterVec
	selectionTotal  *prometheus.CounterVec
	sessions        prometheus.Gauge
}

// NewCollector constructs a collector on its own registry.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for inbound HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests.",
		}, []string{"method", "path", "status"}),
		uploadTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Spreadsheet uploads by dataset kind and outcome.",
		}, []string{"kind", "status"}),
		selectionTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Best model selections by metric.",
		}, []string{"metric"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Sessions currently holding uploaded datasets.",
		}),
	}

	for _, collector := range []prometheus.Collector{
		c.requestDuration, c.requestTotal, c.uploadTotal, c.selectionTotal, c.sessions,
	} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Upload counts one upload attempt.
func (c *Collector) Upload(kind string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	c.uploadTotal.WithLabelValues(kind, status).Inc()
}

// Selection counts one best model selection.
func (c *Collector) Selection(metric string) {
	c.selectionTotal.WithLabelValues(metric).Inc()
}

// Sessions reports the current number of sessions.
func (c *Collector) Sessions(n int) {
	c.sessions.Set(float64(n))
}

// Route labels shared by every path outside the registered API routes.
const (
	RouteStatic = "static"
	RouteOther  = "other"
)

// InstrumentHandler wraps the provided handler to record HTTP metrics. The
// path label is the request path when it is one of routes, RouteStatic when it
// is one of assets and RouteOther for anything else, so the number of series
// stays bounded whatever paths clients request.
func (c *Collector) InstrumentHandler(next http.Handler, routes, assets []string) http.Handler {
	labels := make(map[string]string, len(routes)+len(assets))
	for _, a := range assets {
		labels[a] = RouteStatic
	}
	for _, r := range routes {
		labels[r] = r
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path, ok := labels[r.URL.Path]
		if !ok {
			path = RouteOther
		}

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
