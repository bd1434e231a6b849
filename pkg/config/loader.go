package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// EnvPrefix is prepended to every environment override key, e.g. SALESAGENT_AGENT_MODEL.
const EnvPrefix = "SALESAGENT_"

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// LoadConfig loads configuration from a JSON file with ${VAR} substitution,
// then applies environment overrides, defaults, and validation.
// A missing file is not an error: defaults plus environment overrides are used.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		dataStr := envVarRegex.ReplaceAllStringFunc(string(data), func(match string) string {
			envVar := match[2 : len(match)-1]
			if value := os.Getenv(envVar); value != "" {
				return value
			}
			return match
		})
		if err := json.Unmarshal([]byte(dataStr), config); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		getLogger().Debug("No config file at %s, using defaults", configPath)
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(config)
	applyDefaults(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

func applyEnvOverrides(config *Config) {
	v := reflect.ValueOf(config).Elem()
	applyEnvOverridesRecursive(v, v.Type(), EnvPrefix)
}

func applyEnvOverridesRecursive(v reflect.Value, t reflect.Type, prefix string) {
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		jsonTag := t.Field(i).Tag.Get("json")
		if jsonTag == "" || jsonTag == "-" {
			continue
		}

		envKey := strings.ToUpper(prefix + strings.Split(jsonTag, ",")[0])

		if field.Kind() == reflect.Struct {
			applyEnvOverridesRecursive(field, field.Type(), envKey+"_")
			continue
		}
		if envValue := os.Getenv(envKey); envValue != "" {
			setFieldFromEnv(field, envValue)
		}
	}
}

func setFieldFromEnv(field reflect.Value, envValue string) {
	if !field.CanSet() {
		return
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(envValue)
	case reflect.Int:
		if val, err := strconv.Atoi(envValue); err == nil {
			field.SetInt(int64(val))
		}
	case reflect.Float64:
		if val, err := strconv.ParseFloat(envValue, 64); err == nil {
			field.SetFloat(val)
		}
	case reflect.Bool:
		if val, err := strconv.ParseBool(envValue); err == nil {
			field.SetBool(val)
		}
	}
}

// applyDefaults fills fields a config file may have blanked out.
func applyDefaults(config *Config) {
	if config.Agent.Model == "" {
		config.Agent.Model = DefaultModel
	}
	if config.Agent.OllamaHost == "" {
		config.Agent.OllamaHost = DefaultOllamaHost
	}
	if config.Agent.MaxTokens == 0 {
		config.Agent.MaxTokens = DefaultMaxTokens
	}
	if config.Agent.TimeoutSeconds == 0 {
		config.Agent.TimeoutSeconds = DefaultTimeoutSecs
	}
	if config.Agent.RetryAttempts == 0 {
		config.Agent.RetryAttempts = DefaultRetryAttempt
	}
	if config.Leads.Sink == "" {
		config.Leads.Sink = SinkBoth
	}
	if config.Leads.DBPath == "" {
		config.Leads.DBPath = DefaultLeadsDBPath
	}
	if config.Server.Addr == "" {
		config.Server.Addr = DefaultServerAddr
	}
	if config.Server.SessionTTLMinutes == 0 {
		config.Server.SessionTTLMinutes = DefaultSessionTTL
	}
	if config.Server.SweepIntervalSeconds == 0 {
		config.Server.SweepIntervalSeconds = DefaultSweepSecs
	}
	if config.Metrics.PrometheusURL == "" {
		config.Metrics.PrometheusURL = DefaultPromURL
	}
}

func validateConfig(config *Config) error {
	provider, err := config.Agent.ResolveProvider()
	if err != nil {
		return err
	}
	switch provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderOllama:
	default:
		return fmt.Errorf("unsupported provider '%s'", provider)
	}

	if config.Agent.Temperature < 0.0 || config.Agent.Temperature > 2.0 {
		return fmt.Errorf("agent temperature must be between 0.0 and 2.0, got %.2f", config.Agent.Temperature)
	}
	if config.Agent.MaxTokens < 0 {
		return fmt.Errorf("agent max_tokens must be positive")
	}
	if config.Agent.RetryAttempts < 1 {
		return fmt.Errorf("agent retry_attempts must be at least 1")
	}

	switch config.Leads.Sink {
	case SinkLog, SinkSQLite, SinkBoth:
	default:
		return fmt.Errorf("leads sink must be one of %s, %s, %s; got '%s'", SinkLog, SinkSQLite, SinkBoth, config.Leads.Sink)
	}

	if config.Server.SessionTTLMinutes < 0 {
		return fmt.Errorf("server session_ttl_minutes cannot be negative")
	}
	return nil
}
