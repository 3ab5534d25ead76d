package llm

// Options contains model inference parameters.
//
// Named fields are sent under the request's "options" object. Extra is an escape
// hatch for provider-specific keys: its entries are merged verbatim into the top
// level of the request body. Keys that identify the request itself (model, prompt,
// messages, name, stream) are never taken from Extra. An "options" entry in Extra
// is merged into the options object without overriding named fields.
type Options struct {
	// Sampling parameters
	Temperature *float64 `json:"temperature,omitempty"` // Creativity (0.0-2.0)
	TopP        *float64 `json:"top_p,omitempty"`       // Nucleus sampling threshold
	TopK        *int     `json:"top_k,omitempty"`       // Top-k sampling
	Seed        *int     `json:"seed,omitempty"`        // Random seed for reproducibility

	// Length parameters
	NumPredict *int `json:"num_predict,omitempty"` // Max tokens to generate
	NumCtx     *int `json:"num_ctx,omitempty"`     // Context window size

	// Repetition control
	RepeatPenalty *float64 `json:"repeat_penalty,omitempty"` // Penalty for repeating tokens
	RepeatLastN   *int     `json:"repeat_last_n,omitempty"`  // Tokens to consider for penalty

	// Stop sequences
	Stop []string `json:"stop,omitempty"` // Stop generation at these sequences

	Extra map[string]any `json:"-"`
}

// HasParameters reports whether any named parameter is set.
func (o *Options) HasParameters() bool {
	if o == nil {
		return false
	}
	return o.Temperature != nil || o.TopP != nil || o.TopK != nil || o.Seed != nil ||
		o.NumPredict != nil || o.NumCtx != nil || o.RepeatPenalty != nil ||
		o.RepeatLastN != nil || len(o.Stop) > 0
}

// Ptr returns a pointer to v, for filling the optional fields of Options.
func Ptr[T any](v T) *T {
	return &v
}
