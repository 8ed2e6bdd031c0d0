package convstore

import (
	"context"
	"testing"
	"time"

	"bisage.dev/gateway/internal/model"
)

func TestMemStore_AppendAndRecent(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	turns := []model.ConversationTurn{
		{ThreadID: "t1", Role: model.ConversationRoleUser, Content: "hola", CreatedAt: base},
		{ThreadID: "t1", Role: model.ConversationRoleAssistant, Content: "hola, en que te ayudo", CreatedAt: base.Add(time.Second)},
		{ThreadID: "t1", Role: model.ConversationRoleUser, Content: "ventas de ayer", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, turn := range turns {
		if err := s.Append(ctx, turn); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.Recent(ctx, "t1", 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d turns, want 2", len(got))
	}
	if got[0].Content != "hola, en que te ayudo" || got[1].Content != "ventas de ayer" {
		t.Errorf("unexpected order/content: %+v", got)
	}
}

func TestMemStore_RecentUnknownThread(t *testing.T) {
	s := NewInMemory()
	got, err := s.Recent(context.Background(), "missing", 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown thread, got %+v", got)
	}
}

func TestMemStore_ThreadsAreIsolated(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	_ = s.Append(ctx, model.ConversationTurn{ThreadID: "a", Content: "uno", CreatedAt: time.Now()})
	_ = s.Append(ctx, model.ConversationTurn{ThreadID: "b", Content: "dos", CreatedAt: time.Now()})

	got, _ := s.Recent(ctx, "a", 10)
	if len(got) != 1 || got[0].Content != "uno" {
		t.Errorf("thread a leaked entries: %+v", got)
	}
}
