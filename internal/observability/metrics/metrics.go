// Package metrics exposes Prometheus instruments for the chat pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds counters for webhook traffic, classification and model usage.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	inboundTotal        *prometheus.CounterVec
	classificationTotal *prometheus.CounterVec
	llmCallTotal        *prometheus.CounterVec
	bookingsCompleted   prometheus.Counter
}

// New registers the chat pipeline instruments on reg, defaulting to the
// global registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbot",
			Subsystem: "webhook",
			Name:      "inbound_total",
			Help:      "Inbound webhook deliveries",
		}, []string{"platform", "status"}),
		classificationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbot",
			Subsystem: "intent",
			Name:      "classifications_total",
			Help:      "Intent classifications by resolved intent and source",
		}, []string{"intent", "source"}),
		llmCallTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbot",
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Model calls by caller and status",
		}, []string{"caller", "status"}),
		bookingsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicbot",
			Subsystem: "booking",
			Name:      "completed_total",
			Help:      "Booking tickets created",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.classificationTotal, m.llmCallTotal, m.bookingsCompleted)
	return m
}

// ObserveInbound records one webhook delivery.
func (m *Metrics) ObserveInbound(platform, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(platform, status).Inc()
}

// ObserveClassification records one classification and where it was resolved
// (rules, cache, llm or fallback).
func (m *Metrics) ObserveClassification(intent, source string) {
	if m == nil {
		return
	}
	m.classificationTotal.WithLabelValues(intent, source).Inc()
}

// ObserveLLMCall records one model call outcome for a caller.
func (m *Metrics) ObserveLLMCall(caller, status string) {
	if m == nil {
		return
	}
	m.llmCallTotal.WithLabelValues(caller, status).Inc()
}

// ObserveBookingCompleted records one created booking ticket.
func (m *Metrics) ObserveBookingCompleted() {
	if m == nil {
		return
	}
	m.bookingsCompleted.Inc()
}
