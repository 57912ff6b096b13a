package gateway

import "github.com/devang/mentor/internal/llm"

// ResponseSchema is the JSON Schema for the structured tutoring record.
// Providers with native structured output enforce it server-side; the
// local provider runs in plain JSON-object mode and the contract parser
// handles recovery instead.
func ResponseSchema() *llm.Schema {
	return &llm.Schema{
		Name:        "tutoring_turn",
		Description: "One structured tutoring turn: the learner-visible reply plus the tutor's hidden assessment.",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content_for_user": map[string]any{
					"type":        "string",
					"description": "The reply shown to the learner.",
				},
				"internal_monologue": map[string]any{
					"type":        "string",
					"description": "The tutor's hidden pedagogical reasoning for this turn.",
				},
				"knowledge_point_id": map[string]any{
					"type":        "string",
					"description": "Identifier of the concept this turn concerns, or empty.",
				},
				"student_mastery_score": map[string]any{
					"type":        "number",
					"description": "Estimated mastery of the knowledge point, 0 to 100.",
				},
				"suggested_next_state": map[string]any{
					"type": "string",
					"enum": []any{"GUIDING", "EXPLAINING", "QUIZZING"},
				},
				"is_direct_answer_attempt": map[string]any{
					"type":        "boolean",
					"description": "Whether the learner just asked for the answer outright.",
				},
			},
			"required": []any{
				"content_for_user",
				"internal_monologue",
				"knowledge_point_id",
				"student_mastery_score",
				"suggested_next_state",
				"is_direct_answer_attempt",
			},
			"additionalProperties": false,
		},
	}
}
