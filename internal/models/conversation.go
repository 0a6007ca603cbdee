package models

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	ID        int64     `json:"id"`
	ConvID    string    `json:"conversation_id"`
	Role      string    `json:"role"` // user or assistant
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// Turn is one user message together with its assistant reply. Assistant is
// empty while the turn is still awaiting a response.
type Turn struct {
	User      string `json:"user"`
	Assistant string `json:"assistant,omitempty"`
}
