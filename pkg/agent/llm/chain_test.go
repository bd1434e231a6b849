package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	model string
	calls int
}

func (s *stubClient) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	s.calls++
	return CompletionResponse{Content: req.Messages[len(req.Messages)-1].Content}, nil
}

func (s *stubClient) GetModelName() string { return s.model }

func tagging(tag string, order *[]string) Middleware {
	return func(next LLMClient) LLMClient {
		return WrapClient(
			func(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
				*order = append(*order, tag)
				return next.Complete(ctx, req)
			},
			next.GetModelName,
		)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	base := &stubClient{model: "stub-1"}

	client := Chain(base, tagging("outer", &order), tagging("inner", &order))
	resp, err := client.Complete(context.Background(),
		NewCompletionRequest([]CompletionMessage{NewUserMessage("hello")}, 100, 0.1))

	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, 1, base.calls)
	assert.Equal(t, "stub-1", client.GetModelName())
}

func TestChainNoMiddleware(t *testing.T) {
	base := &stubClient{model: "m"}
	assert.Same(t, LLMClient(base), Chain(base))
}

func TestLLMConfigValidate(t *testing.T) {
	ok := LLMConfig{APIKey: "k", ModelName: "m", MaxTokens: 10, Temperature: 0.15}
	assert.NoError(t, ok.Validate(true))

	noKey := ok
	noKey.APIKey = ""
	assert.Error(t, noKey.Validate(true))
	assert.NoError(t, noKey.Validate(false))

	badTemp := ok
	badTemp.Temperature = 2.5
	assert.Error(t, badTemp.Validate(true))

	badTokens := ok
	badTokens.MaxTokens = 0
	assert.Error(t, badTokens.Validate(true))
}
