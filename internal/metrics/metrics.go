package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the lifecycle Prometheus metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Counters
	taskTransitions    *prometheus.CounterVec
	offerEvents        *prometheus.CounterVec
	txConflicts        *prometheus.CounterVec
	sideEffectFailures *prometheus.CounterVec

	// Gauges
	streamSubscribers prometheus.Gauge

	// Histograms
	collaboratorDuration *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		taskTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskey_task_transitions_total",
				Help: "Total number of task status transitions",
			},
			[]string{"from", "to"},
		),
		offerEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskey_offer_events_total",
				Help: "Total number of offer lifecycle events",
			},
			[]string{"event"},
		),
		txConflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskey_tx_conflicts_total",
				Help: "Total number of optimistic transaction conflicts",
			},
			[]string{"operation", "outcome"},
		),
		sideEffectFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskey_side_effect_failures_total",
				Help: "Total number of failed best-effort side effects",
			},
			[]string{"effect"},
		),
		streamSubscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskey_stream_subscribers",
				Help: "Number of open realtime subscriptions",
			},
		),
		collaboratorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskey_collaborator_duration_seconds",
				Help:    "Latency of calls to external collaborators",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"collaborator", "outcome"},
		),
	}

	reg.MustRegister(
		m.taskTransitions,
		m.offerEvents,
		m.txConflicts,
		m.sideEffectFailures,
		m.streamSubscribers,
		m.collaboratorDuration,
	)

	return m
}

// TaskTransition records a task status change
func (m *Metrics) TaskTransition(from, to string) {
	if m == nil {
		return
	}
	m.taskTransitions.WithLabelValues(from, to).Inc()
}

// OfferEvent records an offer lifecycle event
func (m *Metrics) OfferEvent(event string) {
	if m == nil {
		return
	}
	m.offerEvents.WithLabelValues(event).Inc()
}

// TxConflict records a stale write; outcome is "retried" or "exhausted"
func (m *Metrics) TxConflict(operation, outcome string) {
	if m == nil {
		return
	}
	m.txConflicts.WithLabelValues(operation, outcome).Inc()
}

// SideEffectFailed records a failed best-effort side effect
func (m *Metrics) SideEffectFailed(effect string) {
	if m == nil {
		return
	}
	m.sideEffectFailures.WithLabelValues(effect).Inc()
}

// SubscriberOpened and SubscriberClosed track realtime subscriptions
func (m *Metrics) SubscriberOpened() {
	if m == nil {
		return
	}
	m.streamSubscribers.Inc()
}

func (m *Metrics) SubscriberClosed() {
	if m == nil {
		return
	}
	m.streamSubscribers.Dec()
}

// ObserveCollaborator records the latency of a collaborator call
func (m *Metrics) ObserveCollaborator(collaborator string, start time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.collaboratorDuration.WithLabelValues(collaborator, outcome).Observe(time.Since(start).Seconds())
}
