package llm

// GenerateRequest represents a single-turn completion request (POST /api/generate).
type GenerateRequest struct {
	Model     string   `json:"model"`                // Model name (e.g., "llama2:7b")
	Prompt    string   `json:"prompt"`               // Text to complete
	Stream    *bool    `json:"stream,omitempty"`     // Whether to stream responses (default: true in Ollama)
	System    string   `json:"system,omitempty"`     // System prompt overriding the Modelfile
	Template  string   `json:"template,omitempty"`   // Prompt template overriding the Modelfile
	Format    string   `json:"format,omitempty"`     // Response format ("json" for JSON mode)
	Raw       bool     `json:"raw,omitempty"`        // Send the prompt without templating
	Context   []int    `json:"context,omitempty"`    // Context from a previous generate response
	Images    []string `json:"images,omitempty"`     // Base64-encoded images (multimodal models)
	KeepAlive string   `json:"keep_alive,omitempty"` // How long to keep model in memory

	Options *Options `json:"options,omitempty"`
}

// ChatRequest represents a chat completion request (POST /api/chat).
type ChatRequest struct {
	Model    string    `json:"model"`            // Model name (e.g., "llama2", "mistral")
	Messages []Message `json:"messages"`         // Conversation history, oldest first
	Stream   *bool     `json:"stream,omitempty"` // Whether to stream responses (default: true in Ollama)
	Format   string    `json:"format,omitempty"` // Response format ("json" for JSON mode)

	// Generation options
	Options *Options `json:"options,omitempty"`

	// Keep model loaded
	KeepAlive string `json:"keep_alive,omitempty"` // How long to keep model in memory
}

// PullRequest asks the server to download a model (POST /api/pull).
// Stream is set only by callers that want to override the server default; the
// client never sets it because pull progress is always streamed.
type PullRequest struct {
	Name     string `json:"name"`
	Insecure bool   `json:"insecure,omitempty"`
	Stream   *bool  `json:"stream,omitempty"`
}

// ShowRequest asks for a model's metadata (POST /api/show).
type ShowRequest struct {
	Name string `json:"name"`
}
