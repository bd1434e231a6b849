package sales

import (
	"context"
	"errors"
	"sync"
	"time"
)

// scriptedGenerator returns canned responses in order and records what it was shown.
type scriptedGenerator struct {
	mu        sync.Mutex
	responses []AssistantResponse
	errs      []error
	seen      []GenerationContext
}

func script(responses ...AssistantResponse) *scriptedGenerator {
	return &scriptedGenerator{responses: responses}
}

func (g *scriptedGenerator) Generate(_ context.Context, gc GenerationContext) (AssistantResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := len(g.seen)
	history := make([]Message, len(gc.History))
	copy(history, gc.History)
	gc.History = history
	g.seen = append(g.seen, gc)

	if idx < len(g.errs) && g.errs[idx] != nil {
		return AssistantResponse{}, g.errs[idx]
	}
	if idx >= len(g.responses) {
		return AssistantResponse{}, errors.New("script exhausted")
	}
	return g.responses[idx], nil
}

func (g *scriptedGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

type staticKnowledge struct {
	doc   any
	err   error
	reads int
}

func (k *staticKnowledge) Fetch(context.Context) (any, error) {
	k.reads++
	return k.doc, k.err
}

type recordingSink struct {
	leads []Lead
	err   error
}

func (s *recordingSink) Capture(_ context.Context, lead Lead) error {
	if s.err != nil {
		return s.err
	}
	s.leads = append(s.leads, lead)
	return nil
}

type observedTurn struct {
	result TurnResult
	err    error
}

type recordingObserver struct {
	turns []observedTurn
}

func (o *recordingObserver) ObserveTurn(result TurnResult, _ time.Duration, err error) {
	o.turns = append(o.turns, observedTurn{result: result, err: err})
}

func casual(content string) AssistantResponse {
	return AssistantResponse{Content: content, Intent: IntentCasual}
}

func kbDoc() map[string]any {
	return map[string]any{
		"plans": map[string]any{
			"basic": map[string]any{"price": "$29/month", "resolution": "720p"},
			"pro":   map[string]any{"price": "$79/month", "resolution": "4K"},
		},
	}
}
