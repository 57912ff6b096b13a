package contract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MalformedResponseError indicates the model's output could not be parsed
// as JSON even after code-fence stripping.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Parse turns raw model text into a StructuredResponse.
//
// Recovery order: direct JSON parse first; on failure, strip leading and
// trailing code fences and retry; if that also fails, return
// *MalformedResponseError. The mastery score is clamped to [0,100] and an
// out-of-set suggested state degrades to no transition; neither is fatal.
func Parse(raw string) (*StructuredResponse, error) {
	var r rawResponse
	if err := json.Unmarshal([]byte(raw), &r); err == nil {
		return r.normalize(), nil
	}

	stripped := StripCodeFences(raw)
	if err := json.Unmarshal([]byte(stripped), &r); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Err: err}
	}
	return r.normalize(), nil
}

// StripCodeFences removes a wrapping triple-backtick block, with or
// without a "json" language tag. Models routinely fence their output even
// when told not to.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
