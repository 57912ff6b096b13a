package llm

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds inference configuration. The endpoint URL and model name
// are explicit, per-session inputs; nothing in this package reads
// ambient globals at request time.
type Config struct {
	// Provider selects the backend.
	// Values: "local", "openai", "anthropic", "gemini", "mock".
	Provider string

	Local     LocalConfig
	OpenAI    OpenAIConfig
	Anthropic AnthropicConfig
	Gemini    GeminiConfig

	Sampling SamplingConfig
}

// LocalConfig targets an OpenAI-compatible local inference server.
type LocalConfig struct {
	// BaseURL is the server URL, e.g. "http://localhost:1234/v1".
	// Required; there is no default placeholder.
	BaseURL string
	Model   string
	APIKey  string // optional; most local servers ignore it
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional override for compatible APIs
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// SamplingConfig carries the per-request sampling parameters.
type SamplingConfig struct {
	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns a Config with sensible defaults. The local
// endpoint URL is deliberately left empty: it must be supplied by the
// user and is validated before any network I/O.
func DefaultConfig() Config {
	return Config{
		Provider: "local",
		Local: LocalConfig{
			Model: "qwen2.5-7b-instruct",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku-4-5-20251001",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		Sampling: SamplingConfig{
			Temperature: 0.7,
			MaxTokens:   1024,
		},
	}
}

// ConfigFromEnv builds a Config from MENTOR_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("MENTOR_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}

	if u := os.Getenv("MENTOR_LOCAL_ENDPOINT"); u != "" {
		cfg.Local.BaseURL = u
	}
	if m := os.Getenv("MENTOR_LOCAL_MODEL"); m != "" {
		cfg.Local.Model = m
	}
	if k := os.Getenv("MENTOR_LOCAL_API_KEY"); k != "" {
		cfg.Local.APIKey = k
	}

	if k := os.Getenv("MENTOR_OPENAI_API_KEY"); k != "" {
		cfg.OpenAI.APIKey = k
	}
	if m := os.Getenv("MENTOR_OPENAI_MODEL"); m != "" {
		cfg.OpenAI.Model = m
	}
	if u := os.Getenv("MENTOR_OPENAI_BASE_URL"); u != "" {
		cfg.OpenAI.BaseURL = u
	}

	if k := os.Getenv("MENTOR_ANTHROPIC_API_KEY"); k != "" {
		cfg.Anthropic.APIKey = k
	}
	if m := os.Getenv("MENTOR_ANTHROPIC_MODEL"); m != "" {
		cfg.Anthropic.Model = m
	}

	if k := os.Getenv("MENTOR_GEMINI_API_KEY"); k != "" {
		cfg.Gemini.APIKey = k
	}
	if m := os.Getenv("MENTOR_GEMINI_MODEL"); m != "" {
		cfg.Gemini.Model = m
	}

	if t := os.Getenv("MENTOR_TEMPERATURE"); t != "" {
		if v, err := strconv.ParseFloat(t, 64); err == nil {
			cfg.Sampling.Temperature = v
		}
	}
	if mt := os.Getenv("MENTOR_MAX_TOKENS"); mt != "" {
		if v, err := strconv.Atoi(mt); err == nil {
			cfg.Sampling.MaxTokens = v
		}
	}

	return cfg
}

// Validate checks that the selected provider has its required settings.
// A missing local endpoint URL fails here, before any network I/O.
func (c Config) Validate() error {
	switch c.Provider {
	case "local":
		if c.Local.BaseURL == "" {
			return fmt.Errorf("MENTOR_LOCAL_ENDPOINT is required for the local provider (e.g. http://localhost:1234/v1)")
		}
		if c.Local.Model == "" {
			return fmt.Errorf("MENTOR_LOCAL_MODEL is required for the local provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("MENTOR_OPENAI_API_KEY is required for the openai provider")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("MENTOR_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("MENTOR_GEMINI_API_KEY is required for the gemini provider")
		}
	case "mock":
		// No settings needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
