package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/devang/mentor/internal/contract"
)

// Role is the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one entry in a session transcript. Assistant turns carry a dual
// representation: Text is what the learner saw (possibly the guardrail
// redirect), Response is the full structured record the model produced.
// When a transcript is re-fed as model context, Response (not Text) is
// what gets serialized, so the model keeps its hidden state across turns.
type Turn struct {
	// ID gives rendering clients a stable key for this turn.
	ID        string                       `json:"id"`
	Role      Role                         `json:"role"`
	Text      string                       `json:"text"`
	Response  *contract.StructuredResponse `json:"response,omitempty"`
	Timestamp time.Time                    `json:"timestamp"`
}

// NewUserTurn builds a user turn stamped now.
func NewUserTurn(text string) Turn {
	return Turn{ID: uuid.NewString(), Role: RoleUser, Text: text, Timestamp: time.Now()}
}

// NewAssistantTurn builds an assistant turn carrying both the display
// text and the full structured record.
func NewAssistantTurn(displayText string, resp *contract.StructuredResponse) Turn {
	return Turn{ID: uuid.NewString(), Role: RoleAssistant, Text: displayText, Response: resp, Timestamp: time.Now()}
}
