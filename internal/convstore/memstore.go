package convstore

import (
	"context"
	"sort"
	"sync"

	"bisage.dev/gateway/internal/model"
)

// memStore keeps turns in process memory, grouped by thread. Selected
// when config.MemoryBackend is "memory" — local/dev runs and DEMO_MODE,
// where no Postgres instance is available.
type memStore struct {
	mu    sync.Mutex
	turns map[string][]model.ConversationTurn
}

// NewInMemory returns a Store that never survives process restart.
func NewInMemory() Store {
	return &memStore{turns: make(map[string][]model.ConversationTurn)}
}

func (s *memStore) Append(_ context.Context, turn model.ConversationTurn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[turn.ThreadID] = append(s.turns[turn.ThreadID], turn)
	return nil
}

func (s *memStore) Recent(_ context.Context, threadID string, limit int) ([]model.ConversationTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.turns[threadID]
	if len(all) == 0 || limit <= 0 {
		return nil, nil
	}

	// all is already stored oldest-first; take the tail.
	start := 0
	if len(all) > limit {
		start = len(all) - limit
	}
	out := make([]model.ConversationTurn, len(all)-start)
	copy(out, all[start:])

	// Defensive: keep ordering stable even if a future writer appends
	// out of CreatedAt order.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
