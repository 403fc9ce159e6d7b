package prometheus

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
)

const namespace = "compressor_console"

// Metrics bundles prometheus collectors of the console.
// It implements port.ConsoleMetrics.
type Metrics struct {
	registry *prometheus.Registry

	IngestionTicks       prometheus.Counter
	WindowSize           prometheus.Gauge
	CurrentPowerKW       prometheus.Gauge
	EfficiencyRatio      prometheus.Gauge
	DischargeTempC       prometheus.Gauge
	AnomalyActive        prometheus.Gauge
	AnalysisDispatches   *prometheus.CounterVec
	NarrativeFailures    *prometheus.CounterVec
	CompletionsDiscarded *prometheus.CounterVec

	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec
	RateLimitDropped   prometheus.Counter
	AuthFailures       prometheus.Counter
}

// New registers console collectors in registry. A nil registry gets a fresh one
// with Go runtime and process collectors.
func New(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &Metrics{
		registry: registry,
		IngestionTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestion_ticks_total",
			Help:      "Total number of readings appended to the rolling window.",
		}),
		WindowSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "window_readings",
			Help:      "Number of readings currently held in the rolling window.",
		}),
		CurrentPowerKW: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "power_kw",
			Help:      "Power draw of the latest reading in kW.",
		}),
		EfficiencyRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "efficiency_ratio",
			Help:      "Efficiency of the latest reading (0..1).",
		}),
		DischargeTempC: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "discharge_temp_celsius",
			Help:      "Discharge temperature of the latest reading.",
		}),
		AnomalyActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "anomaly_active",
			Help:      "1 while the plant runs in the anomalous regime.",
		}),
		AnalysisDispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_dispatches_total",
			Help:      "Analysis cycles handed to the trend analyst, by mode.",
		}, []string{"mode"}),
		NarrativeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrative_failures_total",
			Help:      "Narrator calls that ended in a fallback text, by kind.",
		}, []string{"kind"}),
		CompletionsDiscarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_discarded_total",
			Help:      "Narrator results dropped as stale, by slot.",
		}, []string{"slot"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of console HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Console HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_dropped_total",
			Help:      "Operator commands rejected by the rate limiter.",
		}),
		AuthFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Total number of rejected authentication attempts.",
		}),
	}

	registry.MustRegister(
		m.IngestionTicks,
		m.WindowSize,
		m.CurrentPowerKW,
		m.EfficiencyRatio,
		m.DischargeTempC,
		m.AnomalyActive,
		m.AnalysisDispatches,
		m.NarrativeFailures,
		m.CompletionsDiscarded,
		m.RequestsTotal,
		m.RequestDurationSec,
		m.RateLimitDropped,
		m.AuthFailures,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveTick(windowLen int, latest entity.Reading) {
	m.IngestionTicks.Inc()
	m.WindowSize.Set(float64(windowLen))
	m.CurrentPowerKW.Set(latest.PowerKW())
	m.EfficiencyRatio.Set(latest.Efficiency())
	m.DischargeTempC.Set(latest.Temp())
}

func (m *Metrics) SetAnomalyActive(active bool) {
	if active {
		m.AnomalyActive.Set(1)
		return
	}
	m.AnomalyActive.Set(0)
}

func (m *Metrics) AnalysisDispatched(mode string) {
	m.AnalysisDispatches.WithLabelValues(mode).Inc()
}

func (m *Metrics) NarrativeFailed(kind string) {
	m.NarrativeFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) CompletionDiscarded(slot string) {
	m.CompletionsDiscarded.WithLabelValues(slot).Inc()
}

// Middleware records request count and latency per normalized route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		route := NormalizeRoute(r.URL.Path)
		m.RequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, r.Method, status).Observe(time.Since(startedAt).Seconds())
	})
}

// NormalizeRoute collapses path parameters to keep label cardinality bounded.
func NormalizeRoute(path string) string {
	switch {
	case path == "/" || path == "/ws" || path == "/healthz" || path == "/readyz" || path == "/metrics":
		return path
	case strings.HasPrefix(path, "/static/"):
		return "/static/*"
	case strings.HasPrefix(path, "/api/v1/directives/"):
		rest := strings.TrimPrefix(path, "/api/v1/directives/")
		if i := strings.LastIndex(rest, "/"); i > 0 {
			return "/api/v1/directives/{id}" + rest[i:]
		}
		return "/api/v1/directives/{id}"
	case strings.HasPrefix(path, "/api/v1/"):
		return path
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Hijack passes websocket upgrades through wrapped ResponseWriter.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// Flush keeps streaming behavior for handlers that require it.
func (rw *statusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
