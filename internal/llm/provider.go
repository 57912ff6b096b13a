package llm

import (
	"context"
	"encoding/json"
)

// Provider is the abstraction over the inference service. The gateway
// calls Generate once per tutoring turn; adapters exist for a local
// OpenAI-compatible endpoint and for the hosted OpenAI, Anthropic, and
// Gemini APIs.
type Provider interface {
	// Generate sends the instruction and conversation to the model and
	// returns its completion. Errors are mapped to the package taxonomy
	// (ErrRateLimit, ErrModelNotFound, ErrProviderUnavailable,
	// ErrInvalidResponse) so callers can classify failures without
	// knowing which backend served the request.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured
	// to use.
	ModelID() string

	// Endpoint returns the URL (or API label) requests are sent to.
	// Used in fallback diagnostics.
	Endpoint() string
}

// Request describes one inference call.
type Request struct {
	// System is the per-turn instruction text. Always set by the gateway.
	System string

	// Messages is the conversation history, oldest first, ending with
	// the new user message.
	Messages []Message

	// Schema, when set, asks the provider to use its native structured
	// output mechanism and validate the completion against it. Providers
	// without schema support fall back to plain JSON-object mode and
	// leave validation to the response contract parser.
	Schema *Schema

	// MaxTokens caps the completion length.
	MaxTokens int

	// Temperature controls sampling randomness, 0.0–1.0.
	Temperature float64
}

// Message is a single conversation entry as sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role on the wire.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema describes the JSON structure expected from the model.
type Schema struct {
	// Name identifies the schema (tool name for Anthropic, schema name
	// for OpenAI strict mode).
	Name string

	// Description tells the model what the schema represents.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is the raw completion text. For schema-validated providers
	// this is known-good JSON; for the local provider it is whatever the
	// model produced and still needs contract parsing.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the model that actually served the request.
	Model string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
