package llm

import (
	"context"
	"fmt"

	"github.com/devang/mentor/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped with event
// logging when an event repo is supplied. Retry is deliberately not
// applied here: the tutoring turn protocol makes exactly one attempt per
// turn, and callers that want retries opt in with WithRetry.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "local":
		base, err = NewLocalProvider(cfg.Local)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	if eventRepo != nil {
		return WithEventLog(base, eventRepo), nil
	}
	return base, nil
}
