package llm

// Conversation is an ordered chat history. Order is significant: it is the
// context the model sees, so messages are only ever appended.
type Conversation struct {
	Messages []Message `json:"messages"`
}

// NewConversation starts a conversation, optionally with a system prompt.
func NewConversation(system string) *Conversation {
	c := &Conversation{}
	if system != "" {
		c.Messages = append(c.Messages, SystemMessage(system))
	}
	return c
}

// Append adds messages to the end of the history.
func (c *Conversation) Append(msgs ...Message) {
	c.Messages = append(c.Messages, msgs...)
}

// Say appends a user turn and returns the history to send.
func (c *Conversation) Say(content string) []Message {
	c.Append(UserMessage(content))
	return c.History()
}

// History returns a copy of the messages, oldest first.
func (c *Conversation) History() []Message {
	out := make([]Message, len(c.Messages))
	copy(out, c.Messages)
	return out
}

// Len returns the number of turns recorded.
func (c *Conversation) Len() int {
	return len(c.Messages)
}
