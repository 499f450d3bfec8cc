package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the API and worker flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal     *prometheus.CounterVec
	httpRequestDuration   *prometheus.HistogramVec
	intentsProcessedTotal *prometheus.CounterVec
	endpointsPrunedTotal  prometheus.Counter
	contactsMirroredTotal prometheus.Counter
	gatewaySendDuration   prometheus.Histogram
	dispatcherInflight    prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "push_relay",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "push_relay",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		intentsProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "push_relay",
				Name:      "intents_processed_total",
				Help:      "Total number of intents that reached a terminal status.",
			},
			[]string{"status"},
		),
		endpointsPrunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "push_relay",
				Name:      "endpoints_pruned_total",
				Help:      "Total number of permanently invalid endpoints removed from registries.",
			},
		),
		contactsMirroredTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "push_relay",
				Name:      "contacts_mirrored_total",
				Help:      "Total number of accepted contact requests mirrored.",
			},
		),
		gatewaySendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "push_relay",
				Name:      "gateway_send_duration_seconds",
				Help:      "Fan-out gateway call duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		dispatcherInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "push_relay",
				Name:      "dispatcher_inflight",
				Help:      "Current number of in-flight dispatcher invocations.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.intentsProcessedTotal,
		m.endpointsPrunedTotal,
		m.contactsMirroredTotal,
		m.gatewaySendDuration,
		m.dispatcherInflight,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncIntentProcessed(status string) {
	if m == nil {
		return
	}
	label := strings.TrimSpace(strings.ToLower(status))
	if label == "" {
		label = "unknown"
	}
	m.intentsProcessedTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) AddEndpointsPruned(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.endpointsPrunedTotal.Add(float64(count))
}

func (m *Metrics) IncContactsMirrored() {
	if m == nil {
		return
	}
	m.contactsMirroredTotal.Inc()
}

func (m *Metrics) ObserveGatewaySendDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.gatewaySendDuration.Observe(seconds)
}

func (m *Metrics) IncDispatcherInFlight() {
	if m == nil {
		return
	}
	m.dispatcherInflight.Inc()
}

func (m *Metrics) DecDispatcherInFlight() {
	if m == nil {
		return
	}
	m.dispatcherInflight.Dec()
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}
