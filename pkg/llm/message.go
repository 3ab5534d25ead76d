package llm

// Roles used in chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    string   `json:"role"`             // "system", "user", "assistant"
	Content string   `json:"content"`          // The message content
	Images  []string `json:"images,omitempty"` // Optional base64-encoded images (for multimodal)
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}
