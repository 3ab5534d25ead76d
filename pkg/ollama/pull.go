package ollama

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/papercomputeco/ollamaclient/pkg/llm"
)

// InvalidJSON is the error text of the record substituted for an unparsable pull line.
const InvalidJSON = "Invalid JSON"

// PullLine is one line of a pull response. A line that parses as JSON carries
// the decoded Value (and, for objects, the Progress view of it). A line that
// does not parse is Malformed and keeps only its Raw text.
type PullLine struct {
	Raw       string
	Value     any
	Progress  llm.PullProgress
	Malformed bool
}

// InvalidLineError describes a pull line that was not valid JSON. It is never
// returned by the client; PullLine.Err reports it so callers can treat the final
// line uniformly.
type InvalidLineError struct {
	Line string
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("%s: %q", InvalidJSON, e.Line)
}

// ParseLine decodes a single NDJSON line. It never fails: text that is not valid
// JSON yields a Malformed line.
func ParseLine(raw string) PullLine {
	line := PullLine{Raw: raw}
	if err := json.Unmarshal([]byte(raw), &line.Value); err != nil {
		return PullLine{Raw: raw, Malformed: true}
	}
	if _, ok := line.Value.(map[string]any); ok {
		// Fields of the wrong type are left zero; Value still holds them.
		_ = json.Unmarshal([]byte(raw), &line.Progress)
	}
	return line
}

// ParseLines splits an NDJSON body on "\n", drops empty lines and parses the rest
// in order. Only zero-length lines are dropped; a whitespace-only line is kept
// and comes back Malformed.
func ParseLines(body string) []PullLine {
	parts := strings.Split(body, "\n")
	lines := make([]PullLine, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		lines = append(lines, ParseLine(part))
	}
	return lines
}

// OK reports whether the line parsed as JSON.
func (l PullLine) OK() bool {
	return !l.Malformed
}

// Success reports whether the line is the server's terminal success status.
func (l PullLine) Success() bool {
	return l.OK() && l.Progress.Status == "success" && l.Progress.Error == ""
}

// Err returns the problem a final line reports: an InvalidLineError for a
// malformed line, the server's message for an {"error": ...} line, nil otherwise.
func (l PullLine) Err() error {
	if l.Malformed {
		return &InvalidLineError{Line: l.Raw}
	}
	if l.Progress.Error != "" {
		return fmt.Errorf("pull failed: %s", l.Progress.Error)
	}
	return nil
}

// Map returns the line in its untyped form: the decoded object, or
// {"error": "Invalid JSON", "line": <raw>} for a malformed line. A line holding a
// JSON value that is not an object returns nil.
func (l PullLine) Map() map[string]any {
	if l.Malformed {
		return map[string]any{"error": InvalidJSON, "line": l.Raw}
	}
	obj, _ := l.Value.(map[string]any)
	return obj
}
