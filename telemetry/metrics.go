package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one process. A nil *Metrics records
// nothing.
type Metrics struct {
	Registry *prometheus.Registry

	apiRequests  *prometheus.CounterVec
	apiDuration  *prometheus.HistogramVec
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// NewMetrics creates a registry with the Go and process collectors and the
// courtlistener collectors registered.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtlistener_api_requests_total",
				Help: "Total number of CourtListener API requests",
			},
			[]string{"endpoint", "method", "status"},
		),
		apiDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courtlistener_api_request_duration_seconds",
				Help:    "Duration of CourtListener API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "method"},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtlistener_tool_calls_total",
				Help: "Total number of MCP tool calls",
			},
			[]string{"tool", "status"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courtlistener_tool_call_duration_seconds",
				Help:    "Duration of MCP tool calls in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"tool"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courtlistener_http_requests_total",
				Help: "Total number of HTTP requests served",
			},
			[]string{"method", "path", "status"},
		),
	}

	m.Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m.Registry.MustRegister(collectors.NewGoCollector())
	m.Registry.MustRegister(m.apiRequests, m.apiDuration, m.toolCalls, m.toolDuration, m.httpRequests)
	return m
}

// ObserveRequest records one API request. Status 0 means the request
// failed before a response arrived.
func (m *Metrics) ObserveRequest(endpoint, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.apiRequests.WithLabelValues(endpoint, method, code).Inc()
	m.apiDuration.WithLabelValues(endpoint, method).Observe(d.Seconds())
}

// ObserveTool records one tool call.
func (m *Metrics) ObserveTool(tool string, failed bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if failed {
		status = "error"
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Middleware counts requests served by an echo server.
func (m *Metrics) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		err := next(c)
		if m != nil {
			status := strconv.Itoa(c.Response().Status)
			m.httpRequests.WithLabelValues(c.Request().Method, c.Path(), status).Inc()
		}
		return err
	}
}
