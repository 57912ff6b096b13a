package tutor

// State is the pedagogical mode governing what the model is allowed to do
// on a given turn. The dialogue controller holds exactly one current state
// and changes it only at the end of a completed turn.
type State string

const (
	// StateGuiding forbids direct answers; the model asks Socratic
	// questions and gives at most small hints.
	StateGuiding State = "GUIDING"

	// StateExplaining requires a clear conceptual explanation with
	// grade-appropriate analogies.
	StateExplaining State = "EXPLAINING"

	// StateQuizzing requires generating a new, structurally similar
	// problem to test independent application.
	StateQuizzing State = "QUIZZING"
)

// States lists every valid pedagogical state.
var States = []State{StateGuiding, StateExplaining, StateQuizzing}

// ParseState validates an untrusted state string against the closed set.
// The model supplies suggested_next_state over the wire, so membership is
// checked before the value is ever adopted.
func ParseState(s string) (State, bool) {
	switch State(s) {
	case StateGuiding, StateExplaining, StateQuizzing:
		return State(s), true
	}
	return "", false
}

// Valid reports whether s is a member of the closed state set.
func (s State) Valid() bool {
	_, ok := ParseState(string(s))
	return ok
}

func (s State) String() string {
	return string(s)
}
