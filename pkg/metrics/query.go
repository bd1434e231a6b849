package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// ModelUsage is LLM usage for one model.
type ModelUsage struct {
	Model            string  `json:"model"`
	Requests         int64   `json:"requests"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	TotalTokens      int64   `json:"total_tokens"`
	TotalCost        float64 `json:"total_cost_usd"`
}

// Summary aggregates conversation and LLM metrics across every scraped instance.
type Summary struct {
	Turns         map[string]int64       `json:"turns"`
	Detours       map[string]int64       `json:"detours"`
	LeadsCaptured int64                  `json:"leads_captured"`
	Models        map[string]*ModelUsage `json:"models"`
}

// QueryService provides methods to query metrics from Prometheus.
type QueryService struct {
	queryAPI v1.API
	now      func() time.Time
}

// NewQueryService creates a new metrics query service.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		queryAPI: v1.NewAPI(client),
		now:      time.Now,
	}, nil
}

// vector runs an instant query and returns its samples. Non-vector results are empty.
func (q *QueryService) vector(ctx context.Context, query string) (model.Vector, error) {
	result, _, err := q.queryAPI.Query(ctx, query, q.now())
	if err != nil {
		return nil, fmt.Errorf("query %q failed: %w", query, err)
	}
	vector, _ := result.(model.Vector)
	return vector, nil
}

func (q *QueryService) scalar(ctx context.Context, query string) (float64, error) {
	vector, err := q.vector(ctx, query)
	if err != nil {
		return 0, err
	}
	if len(vector) == 0 {
		return 0, nil
	}
	return float64(vector[0].Value), nil
}

func (q *QueryService) byLabel(ctx context.Context, query string, label model.LabelName) (map[string]float64, error) {
	vector, err := q.vector(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(vector))
	for _, sample := range vector {
		out[string(sample.Metric[label])] = float64(sample.Value)
	}
	return out, nil
}

// GetSummary retrieves turn, detour, lead and per-model LLM totals.
func (q *QueryService) GetSummary(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		Turns:   make(map[string]int64),
		Detours: make(map[string]int64),
		Models:  make(map[string]*ModelUsage),
	}

	turns, err := q.byLabel(ctx, `sum by (outcome) (salesagent_turns_total)`, "outcome")
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	for k, v := range turns {
		summary.Turns[k] = int64(v)
	}

	detours, err := q.byLabel(ctx, `sum by (node) (salesagent_detours_total)`, "node")
	if err != nil {
		return nil, fmt.Errorf("failed to query detours: %w", err)
	}
	for k, v := range detours {
		summary.Detours[k] = int64(v)
	}

	leads, err := q.scalar(ctx, `sum(salesagent_leads_captured_total)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	summary.LeadsCaptured = int64(leads)

	if err := q.fillModels(ctx, summary.Models); err != nil {
		return nil, err
	}
	return summary, nil
}

// fillModels queries per-model request, token and cost totals.
func (q *QueryService) fillModels(ctx context.Context, models map[string]*ModelUsage) error {
	get := func(name string) *ModelUsage {
		if m, ok := models[name]; ok {
			return m
		}
		m := &ModelUsage{Model: name}
		models[name] = m
		return m
	}

	requests, err := q.byLabel(ctx, `sum by (model) (llm_requests_total)`, "model")
	if err != nil {
		return fmt.Errorf("failed to query requests: %w", err)
	}
	for name, v := range requests {
		get(name).Requests = int64(v)
	}

	prompt, err := q.byLabel(ctx, `sum by (model) (llm_tokens_total{type="prompt"})`, "model")
	if err != nil {
		return fmt.Errorf("failed to query prompt tokens: %w", err)
	}
	for name, v := range prompt {
		get(name).PromptTokens = int64(v)
	}

	completion, err := q.byLabel(ctx, `sum by (model) (llm_tokens_total{type="completion"})`, "model")
	if err != nil {
		return fmt.Errorf("failed to query completion tokens: %w", err)
	}
	for name, v := range completion {
		get(name).CompletionTokens = int64(v)
	}

	costs, err := q.byLabel(ctx, `sum by (model) (llm_costs_total)`, "model")
	if err != nil {
		return fmt.Errorf("failed to query total cost: %w", err)
	}
	for name, v := range costs {
		get(name).TotalCost = v
	}

	for _, m := range models {
		m.TotalTokens = m.PromptTokens + m.CompletionTokens
	}
	return nil
}
