package tutor

// Subject anchors the tutor's identity in the instruction prompt.
type Subject string

const (
	SubjectMath    Subject = "MATH"
	SubjectChinese Subject = "CHINESE"
	SubjectEnglish Subject = "ENGLISH"
	SubjectScience Subject = "SCIENCE"
)

// ParseSubject returns the Subject for s, or false for an unrecognized
// value. Callers degrade to a generic framing rather than failing.
func ParseSubject(s string) (Subject, bool) {
	switch Subject(s) {
	case SubjectMath, SubjectChinese, SubjectEnglish, SubjectScience:
		return Subject(s), true
	}
	return "", false
}

// Grade is the learner's school band. It selects the vocabulary and tone
// directive in the instruction prompt.
type Grade string

const (
	GradePrimary Grade = "PRIMARY"
	GradeMiddle  Grade = "MIDDLE"
)

// ParseGrade validates a grade string against the closed set.
func ParseGrade(s string) (Grade, bool) {
	switch Grade(s) {
	case GradePrimary, GradeMiddle:
		return Grade(s), true
	}
	return "", false
}

// MasteryLevel is the learner's self-assessed proficiency tier.
type MasteryLevel string

const (
	MasteryNovice       MasteryLevel = "Novice"
	MasteryIntermediate MasteryLevel = "Intermediate"
	MasteryAdvanced     MasteryLevel = "Advanced"
)

// ParseMasteryLevel validates a mastery tier against the closed set.
func ParseMasteryLevel(s string) (MasteryLevel, bool) {
	switch MasteryLevel(s) {
	case MasteryNovice, MasteryIntermediate, MasteryAdvanced:
		return MasteryLevel(s), true
	}
	return "", false
}

// TaskMode selects the directive framing for the session's purpose.
type TaskMode string

const (
	ModeMistakeAnalysis    TaskMode = "MISTAKE_ANALYSIS"
	ModeConceptExplanation TaskMode = "CONCEPT_EXPLANATION"
	ModeHomeworkHelp       TaskMode = "HOMEWORK_HELP"
)

// ParseTaskMode returns the TaskMode for s, or false for an unrecognized
// value.
func ParseTaskMode(s string) (TaskMode, bool) {
	switch TaskMode(s) {
	case ModeMistakeAnalysis, ModeConceptExplanation, ModeHomeworkHelp:
		return TaskMode(s), true
	}
	return "", false
}

// Profile describes the learner. It is owned by the session layer and
// treated as a read-only input on every turn.
type Profile struct {
	// Identity is the key the persistence layer uses for this learner.
	Identity string `json:"identity"`

	Name    string       `json:"name"`
	Age     int          `json:"age"`
	Grade   Grade        `json:"grade"`
	Mastery MasteryLevel `json:"mastery_level"`
}
