package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesagent/pkg/agent/llm"
	"salesagent/pkg/agent/llmerrors"
	"salesagent/pkg/agent/middleware/metrics"
	"salesagent/pkg/config"
)

type countingClient struct {
	calls int
	err   error
}

func (c *countingClient) Complete(context.Context, llm.CompletionRequest) (llm.CompletionResponse, error) {
	c.calls++
	if c.err != nil {
		return llm.CompletionResponse{}, c.err
	}
	return llm.CompletionResponse{Content: "{}", InputTokens: 10, OutputTokens: 2}, nil
}

func (c *countingClient) GetModelName() string { return config.ModelGemini25Flash }

func TestCreateClientPerProvider(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "g")
	t.Setenv("ANTHROPIC_API_KEY", "a")
	t.Setenv("OPENAI_API_KEY", "o")

	for _, model := range []string{config.ModelGemini25Flash, config.ModelClaudeSonnet4, config.ModelGPT4oMini, config.ModelOllamaLlama31} {
		cfg := config.DefaultConfig().Agent
		cfg.Model = model
		client, err := NewLLMClientFactory(cfg, nil).CreateClient()
		require.NoError(t, err, model)
		assert.Equal(t, model, client.GetModelName())
	}
}

func TestCreateClientMissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := config.DefaultConfig().Agent
	cfg.Model = config.ModelClaudeHaiku45

	_, err := NewLLMClientFactory(cfg, nil).CreateClient()
	assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")
}

func TestCreateClientUnknownModel(t *testing.T) {
	cfg := config.DefaultConfig().Agent
	cfg.Model = "mystery"
	_, err := NewLLMClientFactory(cfg, nil).CreateClient()
	assert.Error(t, err)
}

func TestWrapRecordsAndRetries(t *testing.T) {
	rec := metrics.NewInternalRecorder()
	cfg := config.DefaultConfig().Agent
	cfg.RetryAttempts = 1

	raw := &countingClient{err: llmerrors.NewError(llmerrors.ErrorTypeTransient, "503")}
	client := NewLLMClientFactory(cfg, rec).Wrap(raw)

	_, err := client.Complete(context.Background(), llm.CompletionRequest{})
	require.Error(t, err)
	assert.Equal(t, 1, raw.calls, "single attempt by default")

	raw.err = nil
	_, err = client.Complete(context.Background(), llm.CompletionRequest{})
	require.NoError(t, err)

	snap := rec.Snapshot()
	require.Len(t, snap, 1)
	assert.EqualValues(t, 2, snap[0].RequestCount)
	assert.EqualValues(t, 1, snap[0].ErrorCount)
	assert.EqualValues(t, 10, snap[0].PromptTokens)
}
