// Package observability holds the prometheus metrics served on /metrics and
// the gin middleware that records them.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "menagerie"

// Metrics owns a private registry so each router (and each test) gets
// independent series.
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	created         prometheus.Counter
	persistDuration *prometheus.HistogramVec
	animals         prometheus.Gauge
}

// NewMetrics registers the service collectors plus the Go runtime and process
// collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		created: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "animals_created_total",
			Help:      "Animals accepted and persisted.",
		}),
		persistDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_duration_seconds",
			Help:      "Time spent writing the animals document.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"driver", "status"}),
		animals: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "animals",
			Help:      "Animals currently held in memory.",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObservePersist records one document write.
func (m *Metrics) ObservePersist(driver string, success bool, duration time.Duration) {
	status := "ok"
	if !success {
		status = "error"
	}
	m.persistDuration.WithLabelValues(driver, status).Observe(duration.Seconds())
}

// AnimalCreated counts an accepted create.
func (m *Metrics) AnimalCreated() { m.created.Inc() }

// SetAnimals sets the collection size gauge.
func (m *Metrics) SetAnimals(count int) { m.animals.Set(float64(count)) }

// Middleware records request count and latency. Unmatched routes share the
// "unmatched" label so arbitrary paths cannot grow cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(method, route).Observe(time.Since(started).Seconds())
	}
}
