package store

import (
	"context"
	"time"

	"github.com/devang/mentor/internal/chat"
	"github.com/devang/mentor/internal/tutor"
)

// ProfileRepo persists learner profiles keyed by identity.
type ProfileRepo interface {
	// Save inserts or replaces the profile.
	Save(ctx context.Context, p tutor.Profile) error

	// Get returns the profile for identity, or nil if none exists.
	Get(ctx context.Context, identity string) (*tutor.Profile, error)

	// Delete removes the profile for identity.
	Delete(ctx context.Context, identity string) error
}

// TranscriptRepo persists per-learner conversation transcripts. The
// dialogue controller loads a transcript at session start and saves the
// full transcript after every completed turn.
type TranscriptRepo interface {
	// LoadTranscript returns the stored turns for identity, oldest first.
	// A learner with no transcript gets an empty slice, not an error.
	LoadTranscript(ctx context.Context, identity string) ([]chat.Turn, error)

	// SaveTranscript replaces the stored transcript for identity.
	SaveTranscript(ctx context.Context, identity string, turns []chat.Turn) error
}

// MistakeRecord is one diagnosed learner error in the mistake book.
type MistakeRecord struct {
	ID               int64         `json:"id"`
	Identity         string        `json:"identity"`
	Subject          tutor.Subject `json:"subject"`
	QuestionExcerpt  string        `json:"question_excerpt"`
	Analysis         string        `json:"analysis"`
	KnowledgePointID string        `json:"knowledge_point_id"`
	Timestamp        time.Time     `json:"timestamp"`
}

// MistakeRepo is the mistake-book archive keyed by learner identity.
type MistakeRepo interface {
	// AppendMistake records one diagnosed error.
	AppendMistake(ctx context.Context, rec MistakeRecord) error

	// ListMistakes returns a learner's records, newest first.
	ListMistakes(ctx context.Context, identity string, limit int) ([]MistakeRecord, error)
}

// LLMEventData captures one inference request for diagnostics.
type LLMEventData struct {
	Endpoint     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID int64
	LLMEventData
	Timestamp time.Time
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMEvent records an inference call.
	AppendLLMEvent(ctx context.Context, data LLMEventData) error

	// QueryLLMEvents returns recent events, newest first.
	QueryLLMEvents(ctx context.Context, limit int) ([]LLMEvent, error)

	// GetLLMEvent returns one event by id, or nil if not found.
	GetLLMEvent(ctx context.Context, id int64) (*LLMEvent, error)
}
