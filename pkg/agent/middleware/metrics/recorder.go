// Package metrics records per-request LLM usage: tokens, cost, latency and outcome.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// Recorder receives one observation per completed LLM request.
type Recorder interface {
	ObserveRequest(
		model string,
		promptTokens, completionTokens int,
		cost float64,
		success bool,
		errorType string,
		duration time.Duration,
	)
}

// NoopRecorder discards all observations.
type NoopRecorder struct{}

// Nop returns a recorder for when metrics are disabled.
func Nop() Recorder {
	return NoopRecorder{}
}

func (NoopRecorder) ObserveRequest(_ string, _, _ int, _ float64, _ bool, _ string, _ time.Duration) {}

// Fanout forwards every observation to each recorder in order.
type Fanout []Recorder

func (f Fanout) ObserveRequest(model string, promptTokens, completionTokens int, cost float64, success bool, errorType string, duration time.Duration) {
	for _, r := range f {
		r.ObserveRequest(model, promptTokens, completionTokens, cost, success, errorType, duration)
	}
}

// ModelUsage is the running total for one model.
//
//nolint:govet // JSON field order preferred
type ModelUsage struct {
	Model            string    `json:"model"`
	RequestCount     int64     `json:"request_count"`
	ErrorCount       int64     `json:"error_count"`
	PromptTokens     int64     `json:"prompt_tokens"`
	CompletionTokens int64     `json:"completion_tokens"`
	TotalCost        float64   `json:"total_cost_usd"`
	LastUpdated      time.Time `json:"last_updated"`
}

// InternalRecorder aggregates usage in memory so it can be served without a Prometheus server.
type InternalRecorder struct {
	models map[string]*ModelUsage
	mu     sync.RWMutex
}

// NewInternalRecorder creates an empty in-memory recorder.
func NewInternalRecorder() *InternalRecorder {
	return &InternalRecorder{models: make(map[string]*ModelUsage)}
}

func (r *InternalRecorder) ObserveRequest(model string, promptTokens, completionTokens int, cost float64, success bool, _ string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	usage, ok := r.models[model]
	if !ok {
		usage = &ModelUsage{Model: model}
		r.models[model] = usage
	}
	usage.RequestCount++
	usage.LastUpdated = time.Now()
	if !success {
		usage.ErrorCount++
		return
	}
	usage.PromptTokens += int64(promptTokens)
	usage.CompletionTokens += int64(completionTokens)
	usage.TotalCost += cost
}

// Snapshot returns copies of every model's totals, sorted by model name.
func (r *InternalRecorder) Snapshot() []ModelUsage {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ModelUsage, 0, len(r.models))
	for _, u := range r.models {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Model < out[j].Model })
	return out
}

// Reset clears all totals.
func (r *InternalRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models = make(map[string]*ModelUsage)
}
