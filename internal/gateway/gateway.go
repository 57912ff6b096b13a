package gateway

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/devang/mentor/internal/chat"
	"github.com/devang/mentor/internal/contract"
	"github.com/devang/mentor/internal/llm"
)

// Gateway turns a tutoring request into exactly one inference call and
// always hands back a well-formed structured record. Transport, API, and
// parse failures are absorbed into fallback records so the dialogue
// controller never sees an error from here.
type Gateway struct {
	provider llm.Provider
	sampling llm.SamplingConfig
	logger   *zap.Logger
}

// New builds a gateway over the given provider. A nil logger is replaced
// with a no-op one.
func New(provider llm.Provider, sampling llm.SamplingConfig, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{provider: provider, sampling: sampling, logger: logger}
}

// RequestTurn sends one tutoring turn to the model and returns the parsed
// structured record. The outbound conversation is the instruction as the
// system message, the prior transcript oldest first, then the new user
// message. Assistant turns are re-serialized from their full structured
// record, not their display text, so the model sees its own hidden state
// from earlier turns.
//
// Exactly one attempt is made. On any failure the matching fallback record
// is returned; RequestTurn never returns nil and never returns an error.
func (g *Gateway) RequestTurn(ctx context.Context, instruction string, prior []chat.Turn, userText string) *contract.StructuredResponse {
	messages, err := buildMessages(prior, userText)
	if err != nil {
		g.logger.Error("transcript serialization failed", zap.Error(err))
		return contract.Fallback(contract.FailureParse, g.provider.Endpoint(), err)
	}

	req := llm.Request{
		System:      instruction,
		Messages:    messages,
		Schema:      ResponseSchema(),
		MaxTokens:   g.sampling.MaxTokens,
		Temperature: g.sampling.Temperature,
	}

	resp, err := g.provider.Generate(llm.WithPurpose(ctx, "tutoring-turn"), req)
	if err != nil {
		kind := classify(err)
		g.logger.Warn("inference call failed",
			zap.String("endpoint", g.provider.Endpoint()),
			zap.String("model", g.provider.ModelID()),
			zap.String("failure_kind", string(kind)),
			zap.Error(err))
		return contract.Fallback(kind, g.provider.Endpoint(), err)
	}

	parsed, err := contract.Parse(string(resp.Content))
	if err != nil {
		g.logger.Warn("model response violated the contract",
			zap.String("model", resp.Model),
			zap.Error(err))
		return contract.Fallback(contract.FailureParse, g.provider.Endpoint(), err)
	}

	g.logger.Debug("tutoring turn completed",
		zap.String("model", resp.Model),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.String("suggested_next_state", parsed.SuggestedNextState.String()))
	return parsed
}

// Endpoint exposes the underlying provider's endpoint label for
// diagnostics.
func (g *Gateway) Endpoint() string {
	return g.provider.Endpoint()
}

// buildMessages converts the transcript into wire messages. Assistant
// turns must carry a structured record; it is marshaled back to the exact
// JSON shape the model originally emitted.
func buildMessages(prior []chat.Turn, userText string) ([]llm.Message, error) {
	messages := make([]llm.Message, 0, len(prior)+1)
	for _, turn := range prior {
		switch turn.Role {
		case chat.RoleSystem:
			// System-role turns are display-only notices (guardrail
			// redirects, reset markers). The per-turn instruction is the
			// only system channel on the wire, so these never go out.
			continue
		case chat.RoleUser:
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: turn.Text})
		case chat.RoleAssistant:
			content := turn.Text
			if turn.Response != nil {
				wire, err := turn.Response.MarshalWire()
				if err != nil {
					return nil, err
				}
				content = wire
			}
			messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: content})
		}
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userText})
	return messages, nil
}

// classify maps the provider error taxonomy onto fallback kinds. Anything
// unrecognized is treated as a connection problem, which carries the most
// actionable message for a local-first setup.
func classify(err error) contract.FailureKind {
	var rateLimit *llm.ErrRateLimit
	if errors.As(err, &rateLimit) {
		return contract.FailureRateLimit
	}
	var notFound *llm.ErrModelNotFound
	if errors.As(err, &notFound) {
		return contract.FailureModelNotFound
	}
	var invalid *llm.ErrInvalidResponse
	if errors.As(err, &invalid) {
		return contract.FailureParse
	}
	return contract.FailureConnection
}
