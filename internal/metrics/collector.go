// Package metrics provides internal Prometheus metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector aggregates the deliberation pipeline's metrics.
type Collector struct {
	llmCallsTotal    *prometheus.CounterVec
	llmCallDuration  *prometheus.HistogramVec
	debateRounds     prometheus.Histogram
	toolExecutions   *prometheus.CounterVec
	clipboardChanges *prometheus.CounterVec
}

// NewCollector registers the magi collectors on the given registerer.
// Pass nil to use the default registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	if reg == nil {
		factory = promauto.With(prometheus.DefaultRegisterer)
	}

	return &Collector{
		llmCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "magi",
				Name:      "llm_calls_total",
				Help:      "Total LLM backend calls by agent and outcome",
			},
			[]string{"agent", "status"},
		),
		llmCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "magi",
				Name:      "llm_call_duration_seconds",
				Help:      "LLM backend call duration in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"agent"},
		),
		debateRounds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "magi",
				Name:      "debate_rounds",
				Help:      "Debate extension rounds per deliberation",
				Buckets:   []float64{0, 1, 2, 3, 4, 5},
			},
		),
		toolExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "magi",
				Name:      "tool_executions_total",
				Help:      "Tool bridge executions by tool and outcome",
			},
			[]string{"tool", "status"},
		),
		clipboardChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "magi",
				Name:      "clipboard_decisions_total",
				Help:      "Clipboard curation decisions by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveLLMCall records one backend call.
func (c *Collector) ObserveLLMCall(agent string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.llmCallsTotal.WithLabelValues(agent, status).Inc()
	c.llmCallDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// ObserveDebateRounds records how many extension rounds a deliberation used.
func (c *Collector) ObserveDebateRounds(rounds int) {
	c.debateRounds.Observe(float64(rounds))
}

// ObserveToolExecution records one tool bridge dispatch.
func (c *Collector) ObserveToolExecution(tool string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	c.toolExecutions.WithLabelValues(tool, status).Inc()
}

// ObserveClipboardDecision records one curation outcome
// (approved, rejected, overridden).
func (c *Collector) ObserveClipboardDecision(outcome string) {
	c.clipboardChanges.WithLabelValues(outcome).Inc()
}
