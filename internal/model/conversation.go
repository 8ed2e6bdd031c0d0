package model

import "time"

// ConversationRole distinguishes user and assistant turns.
type ConversationRole string

const (
	ConversationRoleUser      ConversationRole = "user"
	ConversationRoleAssistant ConversationRole = "assistant"
)

// ConversationTurn is one persisted message in a thread's history.
// Append-only: the conversation-history store never deletes a turn.
type ConversationTurn struct {
	ThreadID  string           `json:"thread_id"`
	UserID    string           `json:"user_id,omitempty"`
	Role      ConversationRole `json:"role"`
	Content   string           `json:"content"`
	Labels    []string         `json:"labels,omitempty"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
