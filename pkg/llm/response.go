package llm

import (
	"encoding/json"
	"time"
)

// Metrics are the timing and token counters reported on a completed response.
// Durations are in nanoseconds.
type Metrics struct {
	TotalDuration      int64 `json:"total_duration,omitempty"`       // Total time
	LoadDuration       int64 `json:"load_duration,omitempty"`        // Model load time
	PromptEvalCount    int   `json:"prompt_eval_count,omitempty"`    // Tokens in prompt
	PromptEvalDuration int64 `json:"prompt_eval_duration,omitempty"` // Prompt processing time
	EvalCount          int   `json:"eval_count,omitempty"`           // Generated tokens
	EvalDuration       int64 `json:"eval_duration,omitempty"`        // Generation time
}

// TokensPerSecond returns the generation speed, or 0 when no eval time was reported.
func (m Metrics) TokensPerSecond() float64 {
	if m.EvalDuration == 0 {
		return 0
	}
	return float64(m.EvalCount) / (float64(m.EvalDuration) / float64(time.Second))
}

// GenerateResponse represents a completion response (Ollama-compatible).
type GenerateResponse struct {
	Model      string    `json:"model"`
	CreatedAt  Timestamp `json:"created_at"`
	Response   string    `json:"response"` // The generated text
	Done       bool      `json:"done"`
	DoneReason string    `json:"done_reason,omitempty"`

	// Context for continuation (Ollama-specific)
	Context []int `json:"context,omitempty"`

	Metrics

	// Raw is the document exactly as the server sent it, including fields
	// this type does not declare.
	Raw json.RawMessage `json:"-"`
}

// ChatResponse represents a chat completion response (Ollama-compatible).
type ChatResponse struct {
	Model      string    `json:"model"`      // Model that generated the response
	CreatedAt  Timestamp `json:"created_at"` // Response timestamp
	Message    Message   `json:"message"`    // The assistant's response
	Done       bool      `json:"done"`       // Whether generation is complete
	DoneReason string    `json:"done_reason,omitempty"`

	Metrics

	Raw json.RawMessage `json:"-"` // Document as received
}

// ModelDetails describes the format and family of a model.
type ModelDetails struct {
	ParentModel       string   `json:"parent_model,omitempty"`
	Format            string   `json:"format,omitempty"`
	Family            string   `json:"family,omitempty"`
	Families          []string `json:"families,omitempty"`
	ParameterSize     string   `json:"parameter_size,omitempty"`
	QuantizationLevel string   `json:"quantization_level,omitempty"`
}

// ModelSummary is one entry of the installed model list.
type ModelSummary struct {
	Name       string       `json:"name"`
	Model      string       `json:"model"`
	ModifiedAt Timestamp    `json:"modified_at"`
	Size       int64        `json:"size"`
	Digest     string       `json:"digest"`
	Details    ModelDetails `json:"details"`
}

// ListResponse is the document returned by GET /api/tags.
type ListResponse struct {
	Models []ModelSummary `json:"models"`

	Raw json.RawMessage `json:"-"` // Document as received
}

// ShowResponse is the document returned by POST /api/show.
type ShowResponse struct {
	License    string         `json:"license,omitempty"`
	Modelfile  string         `json:"modelfile"`
	Parameters string         `json:"parameters,omitempty"`
	Template   string         `json:"template,omitempty"`
	System     string         `json:"system,omitempty"`
	Details    ModelDetails   `json:"details"`
	ModelInfo  map[string]any `json:"model_info,omitempty"`
	ModifiedAt Timestamp      `json:"modified_at,omitzero"`

	Raw json.RawMessage `json:"-"` // Document as received
}
