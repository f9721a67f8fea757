package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for clientmailer.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Spreadsheet API
	SheetRequestsTotal *prometheus.CounterVec

	// Dispatch pipeline
	DispatchesTotal         *prometheus.CounterVec
	DispatchRecipientsTotal *prometheus.CounterVec
	DispatchDurationSeconds prometheus.Histogram

	// HTTP API
	APIRequestsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		SheetRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clientmailer_sheet_requests_total",
				Help: "Total number of spreadsheet API calls",
			},
			[]string{"operation", "result"},
		),
		DispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clientmailer_dispatches_total",
				Help: "Total number of bulk dispatch requests by result",
			},
			[]string{"result"},
		),
		DispatchRecipientsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clientmailer_dispatch_recipients_total",
				Help: "Per-recipient dispatch outcomes",
			},
			[]string{"outcome"},
		),
		DispatchDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "clientmailer_dispatch_duration_seconds",
				Help:    "Duration of bulk dispatch requests",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clientmailer_api_requests_total",
				Help: "Total number of HTTP API requests",
			},
			[]string{"method", "status"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.SheetRequestsTotal,
		m.DispatchesTotal,
		m.DispatchRecipientsTotal,
		m.DispatchDurationSeconds,
		m.APIRequestsTotal,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncSheetRequest counts a spreadsheet API call
func (m *Metrics) IncSheetRequest(operation string, err error) {
	if m == nil {
		return
	}
	m.SheetRequestsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
}

// IncDispatch counts a finished dispatch and records its duration
func (m *Metrics) IncDispatch(err error, seconds float64) {
	if m == nil {
		return
	}
	m.DispatchesTotal.WithLabelValues(resultLabel(err)).Inc()
	m.DispatchDurationSeconds.Observe(seconds)
}

// IncRecipientOutcome counts one recipient outcome
func (m *Metrics) IncRecipientOutcome(outcome string) {
	if m == nil {
		return
	}
	m.DispatchRecipientsTotal.WithLabelValues(outcome).Inc()
}

// IncAPIRequest counts an HTTP request
func (m *Metrics) IncAPIRequest(method, status string) {
	if m == nil {
		return
	}
	m.APIRequestsTotal.WithLabelValues(method, status).Inc()
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
