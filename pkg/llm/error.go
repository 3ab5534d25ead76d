// Package llm provides the wire representations of the Ollama-compatible inference
// API: request bodies, response documents, pull progress lines and error bodies.
package llm

// ErrorResponse is the body an Ollama-compatible server returns alongside a
// non-success status, and the terminal line of a failed pull.
type ErrorResponse struct {
	Error string `json:"error"`
}
