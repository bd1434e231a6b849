// Package openaiofficial provides the OpenAI Responses API implementation of llm.LLMClient.
package openaiofficial

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"salesagent/pkg/agent/llm"
	"salesagent/pkg/agent/llmerrors"
)

// OfficialClient wraps the official OpenAI SDK.
type OfficialClient struct {
	client openai.Client
	model  string
}

// NewOfficialClientWithModel creates a raw OpenAI client; middleware is applied by the factory.
func NewOfficialClientWithModel(apiKey, model string, opts ...option.RequestOption) llm.LLMClient {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OfficialClient{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// flattenMessages splits system messages into instructions and renders the
// remaining turns as a labeled transcript for the Responses API input.
func flattenMessages(messages []llm.CompletionMessage) (instructions, input string, err error) {
	var system []string
	var transcript strings.Builder
	for i := range messages {
		msg := &messages[i]
		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, msg.Content)
		case llm.RoleUser:
			fmt.Fprintf(&transcript, "User: %s\n\n", msg.Content)
		case llm.RoleAssistant:
			fmt.Fprintf(&transcript, "Assistant: %s\n\n", msg.Content)
		default:
			return "", "", fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}
	if transcript.Len() == 0 {
		return "", "", fmt.Errorf("at least one user or assistant message is required")
	}
	return strings.Join(system, "\n\n"), strings.TrimSpace(transcript.String()), nil
}

// Complete implements llm.LLMClient.
//
//nolint:gocritic // CompletionRequest passed by value for interface consistency
func (o *OfficialClient) Complete(ctx context.Context, in llm.CompletionRequest) (llm.CompletionResponse, error) {
	instructions, input, err := flattenMessages(in.Messages)
	if err != nil {
		return llm.CompletionResponse{}, llmerrors.NewErrorWithCause(llmerrors.ErrorTypeBadPrompt, err, "message conversion error")
	}

	params := responses.ResponseNewParams{
		Model:           o.model,
		MaxOutputTokens: openai.Int(int64(in.MaxTokens)),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(input)},
		Temperature:     openai.Float(float64(in.Temperature)),
	}
	if instructions != "" {
		params.Instructions = openai.String(instructions)
	}
	if in.JSONOutput {
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			},
		}
	}

	resp, err := o.client.Responses.New(ctx, params)
	if err != nil {
		status := 0
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return llm.CompletionResponse{}, llmerrors.Classify(err, status, "OpenAI")
	}
	if resp == nil {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "empty response from OpenAI Responses API")
	}

	content := resp.OutputText()
	if content == "" {
		return llm.CompletionResponse{}, llmerrors.NewError(llmerrors.ErrorTypeEmptyResponse, "no text output from OpenAI Responses API")
	}

	return llm.CompletionResponse{
		Content:      content,
		StopReason:   string(resp.Status),
		InputTokens:  int(resp.Usage.InputTokens),
		OutputTokens: int(resp.Usage.OutputTokens),
	}, nil
}

// GetModelName returns the model name for this client.
func (o *OfficialClient) GetModelName() string {
	return o.model
}
