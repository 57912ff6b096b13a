package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// LocalProvider talks to a locally hosted OpenAI-compatible inference
// server (llama.cpp, LM Studio, Ollama, vLLM). It requests plain
// JSON-object output mode (local servers rarely implement strict schema
// mode) and leaves structural validation to the response contract
// parser, which also recovers from code-fenced output.
type LocalProvider struct {
	client  *openai.Client
	model   string
	baseURL string
}

// NewLocalProvider creates a provider for the endpoint in cfg. The base
// URL must be non-empty; validating it here keeps a missing configuration
// from ever reaching the network path.
func NewLocalProvider(cfg LocalConfig) (*LocalProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("local inference endpoint URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("local inference model name is required")
	}

	// Local servers accept any bearer token; the SDK just needs one set.
	token := cfg.APIKey
	if token == "" {
		token = "local"
	}
	config := openai.DefaultConfig(token)
	config.BaseURL = cfg.BaseURL

	return &LocalProvider{
		client:  openai.NewClientWithConfig(config),
		model:   cfg.Model,
		baseURL: cfg.BaseURL,
	}, nil
}

func (p *LocalProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    buildChatMessages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: float32(req.Temperature),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, mapOpenAIError(err, p.model)
	}

	if len(resp.Choices) == 0 {
		return nil, &ErrInvalidResponse{
			Err: fmt.Errorf("no choices in completion from %s", p.baseURL),
		}
	}

	return &Response{
		Content: json.RawMessage(resp.Choices[0].Message.Content),
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
		Model: resp.Model,
	}, nil
}

func (p *LocalProvider) ModelID() string {
	return p.model
}

func (p *LocalProvider) Endpoint() string {
	return p.baseURL
}

// buildChatMessages converts a Request into the chat-completions message
// sequence: one system entry carrying the instruction, then the history.
func buildChatMessages(req Request) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage

	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
		})
	}

	return messages
}
