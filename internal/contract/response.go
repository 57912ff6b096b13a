package contract

import (
	"encoding/json"
	"math"

	"github.com/devang/mentor/internal/tutor"
)

// StructuredResponse is the model's mandated output for every tutoring
// turn. It carries both the visible answer and the hidden pedagogical
// metadata. Instances are constructed once by Parse (or a fallback
// constructor) and never mutated afterwards.
type StructuredResponse struct {
	// ContentForUser is the text shown to the learner, subject to the
	// guardrail override in the dialogue controller.
	ContentForUser string `json:"content_for_user"`

	// InternalMonologue is the model's private reasoning. Never rendered;
	// used for diagnostics and the mistake book.
	InternalMonologue string `json:"internal_monologue"`

	// KnowledgePointID is a short identifier for the concept in play.
	KnowledgePointID string `json:"knowledge_point_id"`

	// StudentMasteryScore is the model's mastery estimate, clamped to [0,100].
	StudentMasteryScore int `json:"student_mastery_score"`

	// SuggestedNextState is the model's transition signal. Empty when the
	// model supplied a value outside the closed state set.
	SuggestedNextState tutor.State `json:"suggested_next_state"`

	// IsDirectAnswerAttempt flags that the learner asked for the answer
	// outright. Triggers the guardrail while guiding.
	IsDirectAnswerAttempt bool `json:"is_direct_answer_attempt"`
}

// rawResponse mirrors the wire shape with looser types: the score may
// arrive as a float and the state as an arbitrary string.
type rawResponse struct {
	ContentForUser        string  `json:"content_for_user"`
	InternalMonologue     string  `json:"internal_monologue"`
	KnowledgePointID      string  `json:"knowledge_point_id"`
	StudentMasteryScore   float64 `json:"student_mastery_score"`
	SuggestedNextState    string  `json:"suggested_next_state"`
	IsDirectAnswerAttempt bool    `json:"is_direct_answer_attempt"`
}

func (r rawResponse) normalize() *StructuredResponse {
	resp := &StructuredResponse{
		ContentForUser:        r.ContentForUser,
		InternalMonologue:     r.InternalMonologue,
		KnowledgePointID:      r.KnowledgePointID,
		StudentMasteryScore:   clampScore(r.StudentMasteryScore),
		IsDirectAnswerAttempt: r.IsDirectAnswerAttempt,
	}

	// The state string comes from an untrusted source. An unrecognized
	// value degrades to "no transition" rather than failing the turn.
	if st, ok := tutor.ParseState(r.SuggestedNextState); ok {
		resp.SuggestedNextState = st
	}

	return resp
}

// clampScore interprets the model-reported mastery score as an integer
// in [0,100].
func clampScore(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}

// MarshalWire serializes the full structured record for re-feeding into
// model context. Prior assistant turns must be re-serialized as the full
// JSON object, not the displayed text, so the model keeps sight of its
// own hidden reasoning and transition signals.
func (r *StructuredResponse) MarshalWire() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
