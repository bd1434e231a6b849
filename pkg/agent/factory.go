// Package agent builds the middleware-wrapped LLM client behind the sales agent.
package agent

import (
	"fmt"
	"time"

	"salesagent/pkg/agent/internal/llmimpl/anthropic"
	"salesagent/pkg/agent/internal/llmimpl/google"
	"salesagent/pkg/agent/internal/llmimpl/ollama"
	"salesagent/pkg/agent/internal/llmimpl/openaiofficial"
	"salesagent/pkg/agent/llm"
	"salesagent/pkg/agent/middleware/metrics"
	"salesagent/pkg/agent/middleware/resilience/retry"
	"salesagent/pkg/agent/middleware/resilience/timeout"
	"salesagent/pkg/config"
	"salesagent/pkg/logx"
)

// LLMClientFactory creates provider clients from agent configuration.
type LLMClientFactory struct {
	config   config.AgentConfig
	recorder metrics.Recorder
	logger   *logx.Logger
}

// NewLLMClientFactory creates a factory. A nil recorder disables metrics.
func NewLLMClientFactory(cfg config.AgentConfig, recorder metrics.Recorder) *LLMClientFactory {
	if recorder == nil {
		recorder = metrics.Nop()
	}
	return &LLMClientFactory{
		config:   cfg,
		recorder: recorder,
		logger:   logx.NewLogger("llm"),
	}
}

// CreateClient resolves the provider, fetches its API key and wraps the raw client.
func (f *LLMClientFactory) CreateClient() (llm.LLMClient, error) {
	provider, err := f.config.ResolveProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to determine provider for model %s: %w", f.config.Model, err)
	}

	var apiKey string
	if keyName := config.APIKeyName(provider); keyName != "" {
		apiKey, err = config.GetSecret(keyName)
		if err != nil {
			return nil, fmt.Errorf("failed to get API key for provider %s: %w", provider, err)
		}
	}

	var rawClient llm.LLMClient
	switch provider {
	case config.ProviderGoogle:
		rawClient = google.NewGeminiClientWithModel(apiKey, f.config.Model)
	case config.ProviderAnthropic:
		rawClient = anthropic.NewClaudeClientWithModel(apiKey, f.config.Model)
	case config.ProviderOpenAI:
		rawClient = openaiofficial.NewOfficialClientWithModel(apiKey, f.config.Model)
	case config.ProviderOllama:
		rawClient = ollama.NewOllamaClientWithModel(f.config.OllamaHost, f.config.Model)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}

	f.logger.Info("Using %s model %s", provider, f.config.Model)
	return f.Wrap(rawClient), nil
}

// Wrap applies metrics, retry and timeout middleware, outermost first.
func (f *LLMClientFactory) Wrap(rawClient llm.LLMClient) llm.LLMClient {
	retryConfig := retry.DefaultConfig
	retryConfig.MaxAttempts = f.config.RetryAttempts

	return llm.Chain(rawClient,
		metrics.Middleware(f.recorder, nil, f.logger),
		retry.Middleware(retry.NewPolicy(retryConfig, nil)),
		timeout.Middleware(time.Duration(f.config.TimeoutSeconds)*time.Second),
	)
}
