package llm

// StreamChunk represents a single line of a streamed generate or chat response.
// Chat chunks carry Message, generate chunks carry Response.
type StreamChunk struct {
	Model     string    `json:"model"`
	CreatedAt Timestamp `json:"created_at"`
	Message   *Message  `json:"message,omitempty"`
	Response  string    `json:"response,omitempty"`
	Done      bool      `json:"done"`

	// Final chunk includes metrics
	Metrics
}

// PullProgress is one line of the NDJSON body returned by POST /api/pull.
// Intermediate lines report download progress; the last line is either
// {"status":"success"} or a terminal {"error": "..."}.
type PullProgress struct {
	Status    string `json:"status,omitempty"`
	Digest    string `json:"digest,omitempty"`
	Total     int64  `json:"total,omitempty"`
	Completed int64  `json:"completed,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Percent returns download completion in the range [0, 100], or -1 when the
// line carries no byte counts.
func (p PullProgress) Percent() float64 {
	if p.Total <= 0 {
		return -1
	}
	return float64(p.Completed) / float64(p.Total) * 100
}
