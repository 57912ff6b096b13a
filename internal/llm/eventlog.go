package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/devang/mentor/internal/store"
)

// EventLogProvider is a decorator that records every inference request as
// a store event: latency, token usage, success, and the serialized
// request/response for later inspection via `mentor llm`.
type EventLogProvider struct {
	inner     Provider
	eventRepo store.EventRepo
}

// WithEventLog wraps a Provider with event logging.
func WithEventLog(p Provider, repo store.EventRepo) Provider {
	return &EventLogProvider{inner: p, eventRepo: repo}
}

func (l *EventLogProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := l.inner.Generate(ctx, req)

	data := store.LLMEventData{
		Endpoint:    l.inner.Endpoint(),
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
		data.ResponseBody = string(resp.Content)
	}

	if err != nil {
		data.ErrorMessage = err.Error()
	}

	// Log the event but never fail the request over a logging error.
	if logErr := l.eventRepo.AppendLLMEvent(ctx, data); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log LLM event: %v\n", logErr)
	}

	return resp, err
}

func (l *EventLogProvider) ModelID() string {
	return l.inner.ModelID()
}

func (l *EventLogProvider) Endpoint() string {
	return l.inner.Endpoint()
}

// serializeRequest builds a readable representation of the request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		b.WriteString(fmt.Sprintf("[%s]\n", m.Role))
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	return b.String()
}
