// Package config provides configuration loading, model registry, and secrets for the sales agent.
package config

import (
	"fmt"
	"strings"
	"sync"

	"salesagent/pkg/logx"
)

// Provider names for LLM backends.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
)

// Model name constants.
const (
	ModelGemini25Flash  = "gemini-2.5-flash"
	ModelGemini20Flash  = "gemini-2.0-flash"
	ModelClaudeSonnet4  = "claude-sonnet-4-5"
	ModelClaudeHaiku45  = "claude-haiku-4-5"
	ModelGPT4o          = "gpt-4o"
	ModelGPT4oMini      = "gpt-4o-mini"
	ModelGPT5           = "gpt-5"
	ModelOllamaLlama31  = "llama3.1:8b"
	DefaultModel        = ModelGemini25Flash
	DefaultOllamaHost   = "http://localhost:11434"
	DefaultTemperature  = 0.15
	DefaultMaxTokens    = 1024
	DefaultTimeoutSecs  = 60
	DefaultRetryAttempt = 1
)

// Lead sink kinds.
const (
	SinkLog    = "log"
	SinkSQLite = "sqlite"
	SinkBoth   = "both"
)

// Default locations, relative to the working directory.
const (
	StateDirName       = ".salesagent"
	DefaultConfigPath  = StateDirName + "/config.json"
	DefaultLeadsDBPath = StateDirName + "/leads.db"
	DefaultServerAddr  = ":8080"
	DefaultSessionTTL  = 30 // minutes
	DefaultSweepSecs   = 60
	DefaultPromURL     = "http://localhost:9090"
)

// Config is the root configuration object.
type Config struct {
	Agent     AgentConfig     `json:"agent"`
	Knowledge KnowledgeConfig `json:"knowledge"`
	Leads     LeadsConfig     `json:"leads"`
	Server    ServerConfig    `json:"server"`
	Metrics   MetricsConfig   `json:"metrics"`
}

// AgentConfig selects and tunes the model behind the response generator.
type AgentConfig struct {
	Model          string  `json:"model"`
	Provider       string  `json:"provider,omitempty"` // Inferred from Model when empty
	OllamaHost     string  `json:"ollama_host,omitempty"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	TimeoutSeconds int     `json:"timeout_seconds"`
	RetryAttempts  int     `json:"retry_attempts"`
}

// KnowledgeConfig points at the knowledge document. Empty Path uses the built-in document.
type KnowledgeConfig struct {
	Path string `json:"path,omitempty"`
}

// LeadsConfig selects where captured leads go.
type LeadsConfig struct {
	Sink   string `json:"sink"`
	DBPath string `json:"db_path"`
}

// ServerConfig controls the HTTP session driver.
type ServerConfig struct {
	Addr                 string `json:"addr"`
	SessionTTLMinutes    int    `json:"session_ttl_minutes"`
	SweepIntervalSeconds int    `json:"sweep_interval_seconds"`
}

// MetricsConfig controls Prometheus integration.
type MetricsConfig struct {
	Enabled       bool   `json:"enabled"`
	PrometheusURL string `json:"prometheus_url"`
}

// DefaultConfig returns a configuration that runs against Gemini with the built-in knowledge base.
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			Model:          DefaultModel,
			OllamaHost:     DefaultOllamaHost,
			Temperature:    DefaultTemperature,
			MaxTokens:      DefaultMaxTokens,
			TimeoutSeconds: DefaultTimeoutSecs,
			RetryAttempts:  DefaultRetryAttempt,
		},
		Leads: LeadsConfig{
			Sink:   SinkBoth,
			DBPath: DefaultLeadsDBPath,
		},
		Server: ServerConfig{
			Addr:                 DefaultServerAddr,
			SessionTTLMinutes:    DefaultSessionTTL,
			SweepIntervalSeconds: DefaultSweepSecs,
		},
		Metrics: MetricsConfig{
			Enabled:       true,
			PrometheusURL: DefaultPromURL,
		},
	}
}

//nolint:gochecknoglobals // Package logger, created lazily
var (
	configLogger     *logx.Logger
	configLoggerOnce sync.Once
)

func getLogger() *logx.Logger {
	configLoggerOnce.Do(func() {
		configLogger = logx.NewLogger("config")
	})
	return configLogger
}

// LogInfo logs an info message using the config logger.
func LogInfo(format string, args ...any) {
	getLogger().Info(format, args...)
}

// ModelInfo contains static information about a known LLM model.
type ModelInfo struct {
	Provider         string  // API provider
	InputCPM         float64 // Cost per million input tokens (USD)
	OutputCPM        float64 // Cost per million output tokens (USD)
	MaxContextTokens int
	MaxOutputTokens  int
}

// KnownModels holds pricing and provider information for common models.
// Unknown models are inferred via ProviderPatterns.
//
//nolint:gochecknoglobals // Static model registry
var KnownModels = map[string]ModelInfo{
	ModelGemini25Flash: {
		Provider:         ProviderGoogle,
		InputCPM:         0.30,
		OutputCPM:        2.50,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  65536,
	},
	ModelGemini20Flash: {
		Provider:         ProviderGoogle,
		InputCPM:         0.10,
		OutputCPM:        0.40,
		MaxContextTokens: 1048576,
		MaxOutputTokens:  8192,
	},
	ModelClaudeSonnet4: {
		Provider:         ProviderAnthropic,
		InputCPM:         3.0,
		OutputCPM:        15.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},
	ModelClaudeHaiku45: {
		Provider:         ProviderAnthropic,
		InputCPM:         1.0,
		OutputCPM:        5.0,
		MaxContextTokens: 200000,
		MaxOutputTokens:  8192,
	},
	ModelGPT4o: {
		Provider:         ProviderOpenAI,
		InputCPM:         2.5,
		OutputCPM:        10.0,
		MaxContextTokens: 128000,
		MaxOutputTokens:  4096,
	},
	ModelGPT4oMini: {
		Provider:         ProviderOpenAI,
		InputCPM:         0.15,
		OutputCPM:        0.60,
		MaxContextTokens: 128000,
		MaxOutputTokens:  16384,
	},
	ModelGPT5: {
		Provider:         ProviderOpenAI,
		InputCPM:         1.25,
		OutputCPM:        10.0,
		MaxContextTokens: 400000,
		MaxOutputTokens:  128000,
	},
	ModelOllamaLlama31: {
		Provider:         ProviderOllama,
		MaxContextTokens: 128000,
		MaxOutputTokens:  4096,
	},
}

// ProviderPattern maps a model name prefix to a provider.
type ProviderPattern struct {
	Prefix   string
	Provider string
}

// ProviderPatterns infers providers for models missing from KnownModels.
//
//nolint:gochecknoglobals // Static inference rules
var ProviderPatterns = []ProviderPattern{
	{"claude", ProviderAnthropic},
	{"gpt", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
	{"gemini", ProviderGoogle},
	{"phi", ProviderOllama},
	{"llama", ProviderOllama},
	{"qwen", ProviderOllama},
	{"mistral", ProviderOllama},
	{"gemma", ProviderOllama},
	{"ollama:", ProviderOllama},
}

// GetModelProvider returns the API provider for a model name.
func GetModelProvider(modelName string) (string, error) {
	if info, exists := KnownModels[modelName]; exists {
		return info.Provider, nil
	}
	for i := range ProviderPatterns {
		if strings.HasPrefix(modelName, ProviderPatterns[i].Prefix) {
			return ProviderPatterns[i].Provider, nil
		}
	}
	return "", fmt.Errorf("unknown model '%s': no known provider mapping or pattern match", modelName)
}

// GetModelInfo returns registry info for a model, or conservative defaults with an inferred provider.
func GetModelInfo(modelName string) (ModelInfo, bool) {
	if info, exists := KnownModels[modelName]; exists {
		return info, true
	}
	provider, _ := GetModelProvider(modelName)
	return ModelInfo{
		Provider:         provider,
		MaxContextTokens: 32000,
		MaxOutputTokens:  4096,
	}, false
}

// APIKeyName returns the secret name holding the API key for a provider.
// Ollama needs no key and returns "".
func APIKeyName(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}

// ResolveProvider returns the configured provider or infers it from the model.
func (a *AgentConfig) ResolveProvider() (string, error) {
	if a.Provider != "" {
		return a.Provider, nil
	}
	return GetModelProvider(a.Model)
}
