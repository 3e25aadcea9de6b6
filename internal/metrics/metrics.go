// Package metrics exposes Prometheus collectors for the reservation
// engine, the call agent and the background consumers.  A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector the service records.
type Metrics struct {
	reservations      *prometheus.CounterVec
	allocationRetries prometheus.Counter
	toolCalls         *prometheus.CounterVec
	llmLatency        *prometheus.HistogramVec
	callsFinalized    *prometheus.CounterVec
	qualityOverall    *prometheus.HistogramVec
	consumed          *prometheus.CounterVec
}

// New registers the collectors on reg.  With a nil registerer the
// returned value is a no-op.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		reservations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reservation_operations_total",
			Help: "Reservation operations by outcome.",
		}, []string{"operation", "outcome"}),
		allocationRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reservation_allocation_retries_total",
			Help: "Table allocations retried after a write conflict.",
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agent_tool_calls_total",
			Help: "Tool invocations made by the phone agent.",
		}, []string{"tool", "result"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Latency of language model requests.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16},
		}, []string{"purpose"}),
		callsFinalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calls_finalized_total",
			Help: "Calls finalized by conversational variant.",
		}, []string{"variant"}),
		qualityOverall: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "call_quality_overall",
			Help:    "Overall quality score of scored calls.",
			Buckets: []float64{20, 40, 60, 75, 90, 100},
		}, []string{"variant"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_messages_consumed_total",
			Help: "Broker messages handled by consumer and result.",
		}, []string{"queue", "result"}),
	}
	reg.MustRegister(m.reservations, m.allocationRetries, m.toolCalls, m.llmLatency,
		m.callsFinalized, m.qualityOverall, m.consumed)
	return m
}

// Reservation counts one reservation operation ("create", "cancel",
// "complete") with its outcome.
func (m *Metrics) Reservation(operation, outcome string) {
	if m == nil || m.reservations == nil {
		return
	}
	m.reservations.WithLabelValues(operation, normalizeLabel(outcome)).Inc()
}

// AllocationRetry counts a create that lost a write race and retried.
func (m *Metrics) AllocationRetry() {
	if m == nil || m.allocationRetries == nil {
		return
	}
	m.allocationRetries.Inc()
}

// ToolCall counts one agent tool execution.
func (m *Metrics) ToolCall(tool, result string) {
	if m == nil || m.toolCalls == nil {
		return
	}
	m.toolCalls.WithLabelValues(normalizeLabel(tool), normalizeLabel(result)).Inc()
}

// ObserveLLM records the duration of one model request.
func (m *Metrics) ObserveLLM(purpose string, d time.Duration) {
	if m == nil || m.llmLatency == nil {
		return
	}
	m.llmLatency.WithLabelValues(normalizeLabel(purpose)).Observe(d.Seconds())
}

// CallFinalized counts a call handed to durable storage.
func (m *Metrics) CallFinalized(variant string) {
	if m == nil || m.callsFinalized == nil {
		return
	}
	m.callsFinalized.WithLabelValues(normalizeLabel(variant)).Inc()
}

// ObserveQuality records an overall quality score.
func (m *Metrics) ObserveQuality(variant string, overall float64) {
	if m == nil || m.qualityOverall == nil {
		return
	}
	m.qualityOverall.WithLabelValues(normalizeLabel(variant)).Observe(overall)
}

// Consumed counts a message handled by a queue consumer.
func (m *Metrics) Consumed(queue, result string) {
	if m == nil || m.consumed == nil {
		return
	}
	m.consumed.WithLabelValues(normalizeLabel(queue), normalizeLabel(result)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
