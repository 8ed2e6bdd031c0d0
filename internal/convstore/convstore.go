// Package convstore persists per-thread conversation history: append a
// turn, load the most recent N for context. Backed by Postgres
// (our store, not Supabase REST) with an in-memory fallback selected by
// config.MemoryBackend.
package convstore

import (
	"context"

	"bisage.dev/gateway/internal/model"
)

// Store appends and retrieves conversation turns for a thread.
type Store interface {
	Append(ctx context.Context, turn model.ConversationTurn) error
	Recent(ctx context.Context, threadID string, limit int) ([]model.ConversationTurn, error)
}

// ContextString renders the most recent turns as a compact transcript
// suitable for inclusion in an LLM prompt, oldest first.
func ContextString(turns []model.ConversationTurn) string {
	if len(turns) == 0 {
		return ""
	}
	var out string
	for _, t := range turns {
		role := "Usuario"
		if t.Role == model.ConversationRoleAssistant {
			role = "Asistente"
		}
		out += role + ": " + t.Content + "\n"
	}
	return out
}
