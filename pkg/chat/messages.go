package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is one entry in a conversation transcript. Assistant messages are
// created as streaming placeholders and receive content incrementally until
// the backend signals completion; user messages never stream and are
// immutable after creation.
type Message struct {
	ID          string    `json:"id"`
	Role        string    `json:"role"`
	Content     string    `json:"content"`
	IsStreaming bool      `json:"is_streaming"`
	Agent       string    `json:"agent,omitempty"`
	Provider    string    `json:"provider,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

func NewUserMessage(content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Content:   strings.TrimSpace(content),
		Timestamp: time.Now(),
	}
}

// NewAssistantPlaceholder creates the empty streaming message that token
// events append into.
func NewAssistantPlaceholder() Message {
	return Message{
		ID:          uuid.NewString(),
		Role:        RoleAssistant,
		IsStreaming: true,
		Timestamp:   time.Now(),
	}
}

func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == ""
}
