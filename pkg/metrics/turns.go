// Package metrics records conversation-level Prometheus metrics and queries
// them back from a Prometheus server.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"salesagent/pkg/sales"
)

// Turn outcomes used as the "outcome" label.
const (
	OutcomeOK             = "ok"
	OutcomeEmptyInput     = "empty_input"
	OutcomeTraversalLimit = "traversal_limit"
	OutcomeError          = "error"
)

// TurnRecorder implements sales.TurnObserver with Prometheus collectors.
type TurnRecorder struct {
	turnsTotal    *prometheus.CounterVec
	detoursTotal  *prometheus.CounterVec
	leadsCaptured prometheus.Counter
	turnDuration  prometheus.Histogram
}

// NewTurnRecorder registers the turn collectors on reg.
func NewTurnRecorder(reg prometheus.Registerer) *TurnRecorder {
	factory := promauto.With(reg)
	return &TurnRecorder{
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesagent_turns_total",
				Help: "Conversation turns by outcome",
			},
			[]string{"outcome"},
		),
		detoursTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesagent_detours_total",
				Help: "Knowledge and lead-capture detours taken",
			},
			[]string{"node"},
		),
		leadsCaptured: factory.NewCounter(prometheus.CounterOpts{
			Name: "salesagent_leads_captured_total",
			Help: "Leads written to the lead sink",
		}),
		turnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "salesagent_turn_duration_seconds",
			Help:    "Wall time of a conversation turn",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
	}
}

// ObserveTurn implements sales.TurnObserver.
func (r *TurnRecorder) ObserveTurn(result sales.TurnResult, duration time.Duration, err error) {
	r.turnsTotal.WithLabelValues(Outcome(err)).Inc()
	r.turnDuration.Observe(duration.Seconds())

	for _, node := range result.Path {
		if node != sales.NodeChatbot {
			r.detoursTotal.WithLabelValues(string(node)).Inc()
		}
	}
	// A lead written before a later step failed still counts.
	if result.LeadCaptured {
		r.leadsCaptured.Inc()
	}
}

// Outcome maps a turn error to its metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, sales.ErrEmptyInput):
		return OutcomeEmptyInput
	case errors.Is(err, sales.ErrTraversalLimit):
		return OutcomeTraversalLimit
	}
	if kind := sales.KindOf(err); kind != "" {
		return string(kind)
	}
	return OutcomeError
}
