package ollamatest

import (
	"fmt"
	"strings"

	"github.com/papercomputeco/ollamaclient/pkg/llm"
)

// Responder produces the assistant's text for a generate or chat request.
// Generate requests arrive as a single user message holding the prompt.
type Responder func(model string, messages []llm.Message) string

// Config is the fake server configuration.
type Config struct {
	// Address to listen on (e.g., ":11434"). Unused by Serve.
	ListenAddr string

	// Models installed at startup (e.g., "llama2:7b"). A name without a tag
	// gets ":latest", as on a real server.
	Models []string

	// Registry lists the models a pull can find. When empty, every pull succeeds.
	Registry []string

	// Responder answers generate and chat requests. Defaults to EchoResponder.
	Responder Responder
}

// EchoResponder replies with the content of the last user message.
func EchoResponder(model string, messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			return fmt.Sprintf("%s heard: %s", model, messages[i].Content)
		}
	}
	return fmt.Sprintf("%s heard nothing", model)
}

// normalizeName applies the server's default tag.
func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if !strings.Contains(name, ":") {
		return name + ":latest"
	}
	return name
}
