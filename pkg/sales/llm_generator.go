package sales

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"salesagent/pkg/agent/llm"
	"salesagent/pkg/agent/llmerrors"
)

// LLMGenerator produces AssistantResponse records from a chat model asked for JSON output.
type LLMGenerator struct {
	client      llm.LLMClient
	maxTokens   int
	temperature float32
}

// NewLLMGenerator wraps an LLM client. The client is expected to carry its own middleware.
func NewLLMGenerator(client llm.LLMClient, maxTokens int, temperature float64) *LLMGenerator {
	return &LLMGenerator{
		client:      client,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
	}
}

// Generate implements ResponseGenerator.
//
//nolint:gocritic // GenerationContext passed by value per interface
func (g *LLMGenerator) Generate(ctx context.Context, gc GenerationContext) (AssistantResponse, error) {
	req := llm.NewCompletionRequest(BuildMessages(gc), g.maxTokens, g.temperature)
	req.JSONOutput = true

	resp, err := g.client.Complete(ctx, req)
	if err != nil {
		return AssistantResponse{}, fmt.Errorf("completion failed: %w", err)
	}

	parsed, err := ParseAssistantResponse(resp.Content)
	if err != nil {
		return AssistantResponse{}, llmerrors.NewErrorWithCause(llmerrors.ErrorTypeBadPrompt, err,
			fmt.Sprintf("malformed structured output from %s", g.client.GetModelName()))
	}
	return parsed, nil
}

// BuildMessages lays out the prompt: instructions and output contract, the
// known-facts block when present, then the full history.
//
//nolint:gocritic // GenerationContext passed by value per interface
func BuildMessages(gc GenerationContext) []llm.CompletionMessage {
	messages := make([]llm.CompletionMessage, 0, len(gc.History)+2)
	messages = append(messages, llm.NewSystemMessage(strings.TrimSpace(gc.Instructions)+"\n\n"+strings.TrimSpace(OutputContract)))
	if gc.KnownFacts != "" {
		messages = append(messages, llm.NewSystemMessage(gc.KnownFacts))
	}
	for _, m := range gc.History {
		switch m.Role {
		case RoleUser:
			messages = append(messages, llm.NewUserMessage(m.Content))
		case RoleAssistant:
			messages = append(messages, llm.NewAssistantMessage(m.Content))
		case RoleSystem:
			messages = append(messages, llm.NewSystemMessage(m.Content))
		}
	}
	return messages
}

// ParseAssistantResponse decodes model output, tolerating code fences and
// surrounding prose around the outermost JSON object.
func ParseAssistantResponse(raw string) (AssistantResponse, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return AssistantResponse{}, fmt.Errorf("no JSON object in model output")
	}

	var resp AssistantResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return AssistantResponse{}, fmt.Errorf("failed to decode model output: %w", err)
	}
	if err := resp.Validate(); err != nil {
		return AssistantResponse{}, err
	}
	return resp, nil
}
