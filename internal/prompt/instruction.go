// Package prompt builds the per-turn instruction text that conditions the
// model's tutoring behavior. The builder is a pure function: identical
// inputs always produce identical instruction text.
package prompt

import (
	"fmt"
	"strings"

	"github.com/devang/mentor/internal/tutor"
)

// subjectNames maps subjects to the identity wording in the role anchor.
var subjectNames = map[tutor.Subject]string{
	tutor.SubjectMath:    "math",
	tutor.SubjectChinese: "Chinese language",
	tutor.SubjectEnglish: "English language",
	tutor.SubjectScience: "science",
}

// Audience constraints keyed by grade. PRIMARY directs concrete,
// everyday-life analogies; MIDDLE directs formal definitions. The two are
// mutually exclusive per instruction.
const (
	primaryAudienceDirective = "The student is in primary school. Use short sentences and simple vocabulary. Explain ideas through concrete, everyday-life analogies the student can picture, like sharing snacks or counting toys."
	middleAudienceDirective  = "The student is in middle school. Emphasize formal definitions and precise terminology, and build from them step by step."
)

// State-specific behavioral directives. These are the pedagogical
// guardrails; the dialogue controller relies on this exact framing.
var stateDirectives = map[tutor.State]string{
	tutor.StateGuiding:    "Never give the final answer directly. Lead the student with guiding, Socratic questions so they discover each step themselves. You may offer a small hint when the student is stuck, but nothing more. Emphasize the solving process over the result.",
	tutor.StateExplaining: "Give a clear conceptual explanation of the topic. Use grade-appropriate analogies and connect the concept to something in the real world the student already knows.",
	tutor.StateQuizzing:   "Generate a new problem that is structurally similar to the one just discussed, so the student can apply the same method independently. Do not reuse the original numbers or wording.",
}

// Task-mode directives appended after the state directive.
const (
	mistakeAnalysisDirective = "The student is reviewing a mistake. Diagnose the root cause of the error: identify which concept or step broke down and address that, not just the wrong answer."
	newConceptDirective      = "The student is working on new material. When introducing ideas, explain the new concept before applying it."
)

// formatDirective is always the final segment so nothing earlier in the
// prompt can override the output contract.
const formatDirective = `Respond with exactly one JSON object and nothing else: no markdown, no code fences, no commentary outside the JSON. The object must have exactly these fields:
{
  "content_for_user": string, the reply shown to the student,
  "internal_monologue": string, your private pedagogical reasoning, never shown to the student,
  "knowledge_point_id": string, a short identifier for the concept in play,
  "student_mastery_score": integer from 0 to 100, your estimate of the student's current mastery,
  "suggested_next_state": one of "GUIDING", "EXPLAINING", "QUIZZING",
  "is_direct_answer_attempt": boolean, true if the student just asked you for the answer outright
}`

// BuildInstruction produces the directive text sent to the model for one
// turn. Segments are concatenated in a fixed order (identity anchor,
// audience constraint, state and task directives, output format) so that
// the format contract lands last in the model's attention.
//
// State and grade are closed enums owned by this program; a value outside
// either set is a configuration error. Subject and mode come from user
// settings and degrade to a generic framing when unrecognized.
func BuildInstruction(subject tutor.Subject, profile tutor.Profile, mode tutor.TaskMode, state tutor.State) (string, error) {
	stateDirective, ok := stateDirectives[state]
	if !ok {
		return "", fmt.Errorf("unknown pedagogical state %q", state)
	}

	var audience string
	switch profile.Grade {
	case tutor.GradePrimary:
		audience = primaryAudienceDirective
	case tutor.GradeMiddle:
		audience = middleAudienceDirective
	default:
		return "", fmt.Errorf("unknown grade %q", profile.Grade)
	}

	var b strings.Builder

	// Segment 1: identity and role anchor.
	subjectName, ok := subjectNames[subject]
	if !ok {
		subjectName = "school"
	}
	b.WriteString(fmt.Sprintf("You are a patient, encouraging %s tutor.", subjectName))
	if profile.Name != "" {
		b.WriteString(fmt.Sprintf(" Your student is %s", profile.Name))
		if profile.Age > 0 {
			b.WriteString(fmt.Sprintf(", age %d", profile.Age))
		}
		b.WriteString(".")
	}
	b.WriteString("\n\n")

	// Segment 2: audience constraint from grade and mastery level.
	b.WriteString(audience)
	if level := masteryDirective(profile.Mastery); level != "" {
		b.WriteString(" ")
		b.WriteString(level)
	}
	b.WriteString("\n\n")

	// Segment 3: state-specific behavioral directive plus task framing.
	b.WriteString(stateDirective)
	b.WriteString("\n")
	if mode == tutor.ModeMistakeAnalysis {
		b.WriteString(mistakeAnalysisDirective)
	} else {
		b.WriteString(newConceptDirective)
	}
	b.WriteString("\n\n")

	// Segment 4: strict output format, last so it cannot be overridden.
	b.WriteString(formatDirective)

	return b.String(), nil
}

func masteryDirective(level tutor.MasteryLevel) string {
	switch level {
	case tutor.MasteryNovice:
		return "Assume no prior fluency with this topic; keep every step small."
	case tutor.MasteryIntermediate:
		return "The student has some fluency with this topic; skip only the most basic steps."
	case tutor.MasteryAdvanced:
		return "The student is fluent with the basics; keep the pace brisk and favor depth over repetition."
	}
	return ""
}
