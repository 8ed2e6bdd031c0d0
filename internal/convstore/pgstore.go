package convstore

import (
	"context"
	"encoding/json"
	"fmt"

	"bisage.dev/gateway/core/db"
	"bisage.dev/gateway/internal/model"
	"github.com/jackc/pgx/v5"
)

// pgStore persists turns in a conversation_turns table. One row per turn,
// append-only: Recent selects the last N rows for a thread, ordered back
// to oldest-first for direct use as prompt context.
type pgStore struct {
	db *db.DB
}

// NewPostgres wraps a *db.DB as a Store.
func NewPostgres(database *db.DB) Store {
	return &pgStore{db: database}
}

const insertTurnSQL = `
	INSERT INTO conversation_turns (thread_id, user_id, role, content, labels, metadata, created_at)
	VALUES (@thread_id, @user_id, @role, @content, @labels, @metadata, @created_at)
`

func (s *pgStore) Append(ctx context.Context, turn model.ConversationTurn) error {
	metadata, err := json.Marshal(turn.Metadata)
	if err != nil {
		return fmt.Errorf("convstore: marshaling metadata: %w", err)
	}

	_, err = s.db.Pool().Exec(ctx, insertTurnSQL, pgx.NamedArgs{
		"thread_id":  turn.ThreadID,
		"user_id":    turn.UserID,
		"role":       string(turn.Role),
		"content":    turn.Content,
		"labels":     turn.Labels,
		"metadata":   metadata,
		"created_at": turn.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("convstore: appending turn: %w", err)
	}
	return nil
}

const recentTurnsSQL = `
	SELECT thread_id, user_id, role, content, labels, metadata, created_at
	FROM conversation_turns
	WHERE thread_id = @thread_id
	ORDER BY created_at DESC
	LIMIT @limit
`

func (s *pgStore) Recent(ctx context.Context, threadID string, limit int) ([]model.ConversationTurn, error) {
	rows, err := s.db.Pool().Query(ctx, recentTurnsSQL, pgx.NamedArgs{
		"thread_id": threadID,
		"limit":     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("convstore: querying recent turns: %w", err)
	}
	defer rows.Close()

	var turns []model.ConversationTurn
	for rows.Next() {
		var (
			turn         model.ConversationTurn
			role         string
			metadataJSON []byte
		)
		if err := rows.Scan(&turn.ThreadID, &turn.UserID, &role, &turn.Content, &turn.Labels, &metadataJSON, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("convstore: scanning turn: %w", err)
		}
		turn.Role = model.ConversationRole(role)
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &turn.Metadata); err != nil {
				return nil, fmt.Errorf("convstore: unmarshaling metadata: %w", err)
			}
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("convstore: iterating rows: %w", err)
	}

	reverse(turns)
	return turns, nil
}

func reverse(turns []model.ConversationTurn) {
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
}
