package contract

import (
	"fmt"
	"strings"

	"github.com/devang/mentor/internal/tutor"
)

// FailureKind classifies why the gateway could not obtain a usable model
// response. Each kind maps to a distinct user-safe message and knowledge
// point sentinel.
type FailureKind string

const (
	FailureConnection    FailureKind = "connection"
	FailureParse         FailureKind = "parse"
	FailureRateLimit     FailureKind = "rate-limit"
	FailureModelNotFound FailureKind = "model-not-found"
)

// Knowledge point sentinels used in fallback records. The mistake book
// trigger skips these.
const (
	SentinelConnection    = "ERR_CONN"
	SentinelParse         = "ERR_PARSE"
	SentinelRateLimit     = "ERR_RATE"
	SentinelModelNotFound = "ERR_MODEL"
)

var fallbackMessages = map[FailureKind]string{
	FailureConnection:    "I couldn't reach the tutoring model. Please make sure the inference service is running, then send your message again.",
	FailureParse:         "The model's reply didn't arrive in the expected format. Please try sending your question once more.",
	FailureRateLimit:     "The model service is handling too many requests right now. Give it a moment and try again.",
	FailureModelNotFound: "The configured model wasn't found on the service. Please check the model name in your settings.",
}

var fallbackSentinels = map[FailureKind]string{
	FailureConnection:    SentinelConnection,
	FailureParse:         SentinelParse,
	FailureRateLimit:     SentinelRateLimit,
	FailureModelNotFound: SentinelModelNotFound,
}

// Fallback builds the well-formed record substituted for a failed turn.
// The learner always gets a rendered message and the state machine never
// escalates on failure: suggested state is pinned to GUIDING, the score
// to zero, and the guardrail flag to false.
func Fallback(kind FailureKind, endpoint string, cause error) *StructuredResponse {
	msg, ok := fallbackMessages[kind]
	if !ok {
		msg = fallbackMessages[FailureConnection]
	}
	sentinel, ok := fallbackSentinels[kind]
	if !ok {
		sentinel = SentinelConnection
	}

	return &StructuredResponse{
		ContentForUser:        msg,
		InternalMonologue:     fmt.Sprintf("%s failure: endpoint=%s error=%v", kind, endpoint, cause),
		KnowledgePointID:      sentinel,
		StudentMasteryScore:   0,
		SuggestedNextState:    tutor.StateGuiding,
		IsDirectAnswerAttempt: false,
	}
}

// IsErrorSentinel reports whether a knowledge point id belongs to a
// fallback record rather than a real concept.
func IsErrorSentinel(knowledgePointID string) bool {
	return strings.HasPrefix(knowledgePointID, "ERR_")
}
