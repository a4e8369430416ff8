package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for SignRequests.
const (
	OutcomeDispatched = "dispatched"
	OutcomeRejected   = "rejected"
	OutcomeFailed     = "failed"
)

// Metrics tracks the signing pipeline.
type Metrics struct {
	SignRequests     *prometheus.CounterVec
	HashMismatches   prometheus.Counter
	DispatchFailures prometheus.Counter
	UnknownDispatch  prometheus.Counter
	Completions      *prometheus.CounterVec
	PublishFailures  prometheus.Counter
	DispatchDuration prometheus.Histogram
}

// New registers the proxy metrics on reg, or on the default registry when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		SignRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "intentgate_sign_requests_total",
			Help: "Sign requests by flow and outcome",
		}, []string{"flow", "outcome"}),
		HashMismatches: f.NewCounter(prometheus.CounterOpts{
			Name: "intentgate_hash_mismatches_total",
			Help: "Sign requests whose claimed hash did not match the canonical hash",
		}),
		DispatchFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "intentgate_dispatch_failures_total",
			Help: "Sign calls the signer could not accept",
		}),
		UnknownDispatch: f.NewCounter(prometheus.CounterOpts{
			Name: "intentgate_dispatch_unknown_total",
			Help: "Sign calls whose acknowledgement was lost; the record stays open for a late result",
		}),
		Completions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "intentgate_signature_completions_total",
			Help: "Finalized pending signatures by status",
		}, []string{"status"}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "intentgate_activity_publish_failures_total",
			Help: "Activity batches that could not be published after commit",
		}),
		DispatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "intentgate_sign_pipeline_duration_seconds",
			Help:    "Duration of the sign pipeline from authorization to dispatch",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) IncrementSignRequest(flow, outcome string) {
	m.SignRequests.WithLabelValues(flow, outcome).Inc()
}

func (m *Metrics) IncrementHashMismatch() {
	m.HashMismatches.Inc()
}

func (m *Metrics) IncrementDispatchFailure() {
	m.DispatchFailures.Inc()
}

func (m *Metrics) IncrementUnknownDispatch() {
	m.UnknownDispatch.Inc()
}

func (m *Metrics) IncrementCompletion(status string) {
	m.Completions.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementPublishFailure() {
	m.PublishFailures.Inc()
}

// ObserveDispatch records pipeline duration. Call with time.Now() at the start.
func (m *Metrics) ObserveDispatch(start time.Time) {
	m.DispatchDuration.Observe(time.Since(start).Seconds())
}
