// Package telemetry exports action and tool metrics to Prometheus and sets
// up OpenTelemetry tracing.
package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/flemzord/toolgate/internal/action"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "toolgate"

// AppContext service names.
const (
	// MetricsService is the process *Metrics.
	MetricsService = "telemetry.metrics"

	// GathererService is the prometheus.Gatherer served on /metrics.
	GathererService = "telemetry.gatherer"
)

// Metrics records action lifecycle and tool call metrics.
type Metrics struct {
	proposed      *prometheus.CounterVec
	resolved      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	toolCalls     *prometheus.CounterVec
	pendingLength prometheus.Gauge
}

// NewMetrics creates and registers the collectors with reg. Collectors
// already registered under the same names are reused, so several servers
// in one process share series. A nil reg means prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		proposed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_proposed_total",
			Help:      "Actions registered for approval, by kind.",
		}, []string{"kind"}),
		resolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_resolved_total",
			Help:      "Approve and reject calls, by kind and terminal status.",
		}, []string{"kind", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "action_resolution_duration_seconds",
			Help:      "Time from take to outcome for approve and reject calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "status"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "MCP tool invocations, by tool and result.",
		}, []string{"tool", "result"}),
		pendingLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actions_pending",
			Help:      "Actions currently awaiting a decision.",
		}),
	}

	var err error
	if m.proposed, err = register(reg, m.proposed); err != nil {
		return nil, err
	}
	if m.resolved, err = register(reg, m.resolved); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.toolCalls, err = register(reg, m.toolCalls); err != nil {
		return nil, err
	}
	if m.pendingLength, err = register(reg, m.pendingLength); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, or returns the collector already registered under
// the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("telemetry: register collector: %w", err)
}

// ActionProposed implements action.Observer.
func (m *Metrics) ActionProposed(kind action.Kind) {
	if m == nil {
		return
	}
	m.proposed.WithLabelValues(string(kind)).Inc()
	m.pendingLength.Inc()
}

// ActionResolved implements action.Observer.
func (m *Metrics) ActionResolved(kind action.Kind, status action.Status, d time.Duration) {
	if m == nil {
		return
	}
	k := string(kind)
	if k == "" {
		// Nothing was taken from the store.
		k = "unknown"
	} else {
		m.pendingLength.Dec()
	}
	m.resolved.WithLabelValues(k, string(status)).Inc()
	m.duration.WithLabelValues(k, string(status)).Observe(d.Seconds())
}

// ToolCalled records one MCP tool invocation. result is "ok", "error", or
// "rate_limited".
func (m *Metrics) ToolCalled(tool, result string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, result).Inc()
}

// SetPending resets the pending gauge, used at startup when a durable store
// already holds actions.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pendingLength.Set(float64(n))
}

var _ action.Observer = (*Metrics)(nil)
