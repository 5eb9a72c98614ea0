// Package observability bundles the Prometheus collectors and emitter
// instrumentation used by the node.
package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"sociograph/core/events"
	coretypes "sociograph/core/types"
	"sociograph/native/feecollect"
)

type eventMetrics struct {
	emitted  *prometheus.CounterVec
	collects *prometheus.CounterVec
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking structured protocol events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "sociograph",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of protocol events segmented by event type.",
			}, []string{"type"}),
			collects: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "sociograph",
				Subsystem: "events",
				Name:      "collects_total",
				Help:      "Count of settled collects segmented by currency.",
			}, []string{"currency"}),
		}
		prometheus.MustRegister(eventRegistry.emitted, eventRegistry.collects)
	})
	return eventRegistry
}

// RecordEvent increments the per-type event counter.
func (m *eventMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(eventType)
	if normalized == "" {
		normalized = "unknown"
	}
	m.emitted.WithLabelValues(normalized).Inc()
}

// RecordCollect increments the collect counter for the supplied currency
// symbol. The empty symbol denotes the native asset.
func (m *eventMetrics) RecordCollect(currency string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(strings.ToUpper(currency))
	if normalized == "" {
		normalized = "NATIVE"
	}
	m.collects.WithLabelValues(normalized).Inc()
}

// MeteredEmitter wraps an events.Emitter and counts every emitted event before
// forwarding it. It is the node's default emitter decoration.
type MeteredEmitter struct {
	next    events.Emitter
	metrics *eventMetrics
}

// NewMeteredEmitter decorates next with event metering. A nil next drops
// events after counting them.
func NewMeteredEmitter(next events.Emitter) *MeteredEmitter {
	return &MeteredEmitter{next: next, metrics: Events()}
}

// payloadCarrier is satisfied by the event envelopes of the native engines.
type payloadCarrier interface {
	Event() *coretypes.Event
}

// Emit implements events.Emitter.
func (m *MeteredEmitter) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	m.metrics.RecordEvent(evt.EventType())
	if evt.EventType() == feecollect.EventTypeCollectProcessed {
		if carrier, ok := evt.(payloadCarrier); ok {
			if payload := carrier.Event(); payload != nil {
				m.metrics.RecordCollect(payload.Attributes["currency"])
			}
		}
	}
	if m.next != nil {
		m.next.Emit(evt)
	}
}
