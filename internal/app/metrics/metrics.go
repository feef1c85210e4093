package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "journal_layer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "journal_layer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "journal_layer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	ledgerOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "journal_layer",
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Total journal ledger operations by outcome.",
		},
		[]string{"op", "status"},
	)

	registryOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "journal_layer",
			Subsystem: "registry",
			Name:      "operations_total",
			Help:      "Total access policy registry operations by outcome.",
		},
		[]string{"op", "status"},
	)

	eventsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "journal_layer",
			Subsystem: "events",
			Name:      "emitted_total",
			Help:      "Total events published to the indexer feed.",
		},
		[]string{"type"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		ledgerOps,
		registryOps,
		eventsEmitted,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordLedgerOp records the outcome of a journal ledger operation.
func RecordLedgerOp(op string, err error) {
	ledgerOps.WithLabelValues(op, outcome(err)).Inc()
}

// RecordRegistryOp records the outcome of a policy registry operation.
func RecordRegistryOp(op string, err error) {
	registryOps.WithLabelValues(op, outcome(err)).Inc()
}

// RecordEvent counts one emitted event by type.
func RecordEvent(eventType string) {
	eventsEmitted.WithLabelValues(eventType).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses resource identifiers so metric cardinality stays
// bounded regardless of how many journals and entries exist.
func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")

	switch parts[0] {
	case "journals":
		switch len(parts) {
		case 1:
			return "/journals"
		case 2:
			return "/journals/:id"
		case 3:
			return "/journals/:id/" + parts[2]
		default:
			return "/journals/:id/" + parts[2] + "/:seq"
		}
	case "entries":
		switch len(parts) {
		case 1:
			return "/entries"
		case 2:
			return "/entries/:id"
		default:
			return "/entries/:id/" + parts[2]
		}
	case "policies":
		switch len(parts) {
		case 1:
			return "/policies"
		case 2:
			return "/policies/:entry"
		case 3:
			return "/policies/:entry/" + parts[2]
		default:
			return "/policies/:entry/" + parts[2] + "/:grantee"
		}
	default:
		return "/" + parts[0]
	}
}
