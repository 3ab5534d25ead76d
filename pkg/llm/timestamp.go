package llm

import (
	"encoding/json"
	"time"
)

// Timestamp is a server-reported time. Decoding never fails: an empty, null or
// unparsable value leaves it zero, so one odd field cannot sink a response.
// It encodes like time.Time and is omitted by omitzero when zero.
type Timestamp struct {
	time.Time
}

// At wraps t.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON accepts RFC 3339 strings and treats anything else as zero.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}

	var text string
	if err := json.Unmarshal(data, &text); err != nil || text == "" {
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, text); err == nil {
		t.Time = parsed
	}
	return nil
}
