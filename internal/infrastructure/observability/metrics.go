// Package observability holds the Prometheus metrics and Sentry reporting
// used by the command-line client.
package observability

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/edfisica/pe-assessment-hub/internal/domain/shared"
)

const namespace = "peassess"

// Metrics records API traffic and command outcomes. Each instance owns its
// registry so tests and short-lived processes do not share global state.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	commands        *prometheus.CounterVec
	sessionExpired  prometheus.Counter
	batchItems      *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "api_requests_total", Help: "API requests by route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "api_request_duration_seconds", Help: "API request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "commands_total", Help: "CLI commands by outcome",
		}, []string{"command", "outcome"}),
		sessionExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "session_expired_total", Help: "Sessions ended by a 401",
		}),
		batchItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "batch_items_total", Help: "Per-student results of batch operations",
		}, []string{"operation", "result"}),
	}
	m.registry.MustRegister(m.requests, m.requestDuration, m.commands, m.sessionExpired, m.batchItems)
	return m
}

// Registry exposes the registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveRequest records one API round trip. Status 0 means no response.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, route, label).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveCommand records how a CLI command ended.
func (m *Metrics) ObserveCommand(command string, err error) {
	m.commands.WithLabelValues(command, Outcome(err)).Inc()
}

// ObserveBatch records the per-student results of a batch operation.
func (m *Metrics) ObserveBatch(operation string, ok, failed, skipped int) {
	m.batchItems.WithLabelValues(operation, "ok").Add(float64(ok))
	m.batchItems.WithLabelValues(operation, "failed").Add(float64(failed))
	m.batchItems.WithLabelValues(operation, "skipped").Add(float64(skipped))
}

// SessionExpired is an event handler for shared.EventSessionExpired.
func (m *Metrics) SessionExpired(shared.Event) error {
	m.sessionExpired.Inc()
	return nil
}

// WriteTextfile dumps the metrics in the text exposition format, for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// Outcome classifies an error for metric labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case shared.IsSessionExpired(err):
		return "session_expired"
	case shared.IsValidation(err):
		return "invalid"
	case shared.IsPolicyViolation(err):
		return "rejected"
	case shared.IsNotFound(err):
		return "not_found"
	case shared.IsNetwork(err):
		return "unavailable"
	default:
		return "error"
	}
}
