package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures the answer model.
type Config struct {
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig controls exponential backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv reads TUTORLY_* variables over DefaultConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	for env, dst := range map[string]*string{
		"TUTORLY_LLM_PROVIDER":        &cfg.Provider,
		"TUTORLY_ANTHROPIC_API_KEY":   &cfg.Anthropic.APIKey,
		"TUTORLY_ANTHROPIC_MODEL":     &cfg.Anthropic.Model,
		"TUTORLY_OPENAI_API_KEY":      &cfg.OpenAI.APIKey,
		"TUTORLY_OPENAI_MODEL":        &cfg.OpenAI.Model,
		"TUTORLY_OPENAI_BASE_URL":     &cfg.OpenAI.BaseURL,
		"TUTORLY_GEMINI_API_KEY":      &cfg.Gemini.APIKey,
		"TUTORLY_GEMINI_MODEL":        &cfg.Gemini.Model,
		"TUTORLY_OPENROUTER_API_KEY":  &cfg.OpenRouter.APIKey,
		"TUTORLY_OPENROUTER_MODEL":    &cfg.OpenRouter.Model,
		"TUTORLY_OPENROUTER_BASE_URL": &cfg.OpenRouter.BaseURL,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("TUTORLY_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	return cfg
}

// DiscoverConfig looks for a vendor's standard API key variable, in the
// order Gemini, OpenAI, Anthropic, OpenRouter, and configures the first one
// found. ok is false when none is set.
func DiscoverConfig() (cfg Config, ok bool) {
	cfg = DefaultConfig()
	switch {
	case os.Getenv("GEMINI_API_KEY") != "":
		cfg.Provider, cfg.Gemini.APIKey = ProviderGemini, os.Getenv("GEMINI_API_KEY")
	case os.Getenv("OPENAI_API_KEY") != "":
		cfg.Provider, cfg.OpenAI.APIKey = ProviderOpenAI, os.Getenv("OPENAI_API_KEY")
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		cfg.Provider, cfg.Anthropic.APIKey = ProviderAnthropic, os.Getenv("ANTHROPIC_API_KEY")
	case os.Getenv("OPENROUTER_API_KEY") != "":
		cfg.Provider, cfg.OpenRouter.APIKey = ProviderOpenRouter, os.Getenv("OPENROUTER_API_KEY")
	default:
		return Config{}, false
	}
	return cfg, true
}

// Validate checks that the selected provider has an API key.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case ProviderAnthropic:
		key = c.Anthropic.APIKey
	case ProviderOpenAI:
		key = c.OpenAI.APIKey
	case ProviderGemini:
		key = c.Gemini.APIKey
	case ProviderOpenRouter:
		key = c.OpenRouter.APIKey
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("an API key is required for the %s provider (set TUTORLY_%s_API_KEY)", c.Provider, strings.ToUpper(c.Provider))
	}
	return nil
}
