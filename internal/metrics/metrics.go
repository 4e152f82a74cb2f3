package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics covers the verification lifecycle (coordinator operations, CAS
// conflicts, expiration sweeps, outbox delivery) and the HTTP API. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	OperationDuration  *prometheus.HistogramVec
	OperationsTotal    *prometheus.CounterVec
	VersionConflicts   *prometheus.CounterVec
	StatusTransitions  *prometheus.CounterVec
	DocumentsExpired   prometheus.Counter
	SweepDuration      prometheus.Histogram
	OutboxDelivered    *prometheus.CounterVec
	OutboxFailed       *prometheus.CounterVec
	OutboxDeadLettered prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New registers every metric on reg. Passing nil creates a private
// registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docauth_verification_operation_duration_seconds",
			Help:    "Duration of verification coordinator operations",
			Buckets: durationBuckets,
		}, []string{"operation"}),
		OperationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docauth_verification_operations_total",
			Help: "Verification coordinator operations by outcome",
		}, []string{"operation", "outcome"}),
		VersionConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docauth_document_version_conflicts_total",
			Help: "Optimistic concurrency conflicts detected on commit",
		}, []string{"operation"}),
		StatusTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docauth_status_transitions_total",
			Help: "Committed per-organization status transitions",
		}, []string{"to"}),
		DocumentsExpired: f.NewCounter(prometheus.CounterOpts{
			Name: "docauth_documents_expired_total",
			Help: "Documents moved to EXPIRED by the sweeper",
		}),
		SweepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "docauth_expiration_sweep_duration_seconds",
			Help:    "Duration of one expiration sweep",
			Buckets: durationBuckets,
		}),
		OutboxDelivered: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docauth_outbox_delivered_total",
			Help: "Outbox events delivered to their sink",
		}, []string{"kind"}),
		OutboxFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docauth_outbox_failed_total",
			Help: "Outbox delivery attempts that failed",
		}, []string{"kind"}),
		OutboxDeadLettered: f.NewCounter(prometheus.CounterOpts{
			Name: "docauth_outbox_dead_lettered_total",
			Help: "Outbox events parked after exhausting retries",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "docauth_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"method", "route", "code"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docauth_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: durationBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveOperation records the duration and outcome of a coordinator call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.OperationsTotal.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) IncVersionConflict(op string) {
	if m == nil {
		return
	}
	m.VersionConflicts.WithLabelValues(op).Inc()
}

func (m *Metrics) IncTransition(to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(to).Inc()
}

func (m *Metrics) IncExpired() {
	if m == nil {
		return
	}
	m.DocumentsExpired.Inc()
}

func (m *Metrics) ObserveSweep(start time.Time) {
	if m == nil {
		return
	}
	m.SweepDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncOutboxDelivered(kind string) {
	if m == nil {
		return
	}
	m.OutboxDelivered.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncOutboxFailed(kind string, dead bool) {
	if m == nil {
		return
	}
	m.OutboxFailed.WithLabelValues(kind).Inc()
	if dead {
		m.OutboxDeadLettered.Inc()
	}
}

func (m *Metrics) ObserveHTTP(method, route string, code int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}
