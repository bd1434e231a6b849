package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"salesagent/pkg/sales"
)

func TestTurnRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewTurnRecorder(reg)

	r.ObserveTurn(sales.TurnResult{Path: []sales.Node{sales.NodeChatbot}}, 10*time.Millisecond, nil)
	r.ObserveTurn(sales.TurnResult{Path: []sales.Node{sales.NodeChatbot, sales.NodeKnowledge, sales.NodeChatbot}}, time.Second, nil)
	r.ObserveTurn(sales.TurnResult{
		Path:         []sales.Node{sales.NodeChatbot, sales.NodeLeadCapture, sales.NodeChatbot},
		LeadCaptured: true,
	}, time.Second, nil)
	r.ObserveTurn(sales.TurnResult{Path: []sales.Node{sales.NodeChatbot, sales.NodeLeadCapture}},
		time.Second, &sales.TurnError{Kind: sales.LeadSinkFailure, Node: sales.NodeLeadCapture, Err: errors.New("x")})
	r.ObserveTurn(sales.TurnResult{
		Path:         []sales.Node{sales.NodeChatbot, sales.NodeLeadCapture, sales.NodeChatbot},
		LeadCaptured: true,
	}, time.Second, &sales.TurnError{Kind: sales.GeneratorFailure, Node: sales.NodeChatbot, Err: errors.New("503")})

	assert.InDelta(t, 3, testutil.ToFloat64(r.turnsTotal.WithLabelValues(OutcomeOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.turnsTotal.WithLabelValues("lead_sink")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.turnsTotal.WithLabelValues("generator")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.detoursTotal.WithLabelValues("knowledge")), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(r.detoursTotal.WithLabelValues("lead_capture")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.leadsCaptured), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(r.turnDuration))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, OutcomeEmptyInput, Outcome(sales.ErrEmptyInput))
	assert.Equal(t, OutcomeTraversalLimit, Outcome(fmt.Errorf("wrapped: %w", sales.ErrTraversalLimit)))
	assert.Equal(t, "generator", Outcome(&sales.TurnError{Kind: sales.GeneratorFailure, Err: errors.New("x")}))
	assert.Equal(t, "knowledge_read", Outcome(&sales.TurnError{Kind: sales.KnowledgeReadFailure, Err: errors.New("x")}))
	assert.Equal(t, OutcomeError, Outcome(errors.New("other")))
}
