package checkpoint

import (
	"context"
	"errors"
	"testing"

	"bisage.dev/gateway/internal/model"
)

func TestFromState_FlattensLastError(t *testing.T) {
	state := &model.OrchestratorState{
		ThreadID:   "t1",
		TraceID:    "tr1",
		RetryCount: 2,
		LastError:  errors.New("boom"),
	}
	snap := FromState(state)
	if snap.LastError != "boom" {
		t.Errorf("got %q, want %q", snap.LastError, "boom")
	}
	if snap.ThreadID != "t1" || snap.TraceID != "tr1" || snap.RetryCount != 2 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestInMemoryStore_SaveLoadDelete(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	_, ok, err := s.Load(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	snap := Snapshot{ThreadID: "t1", TraceID: "tr1"}
	if err := s.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := s.Load(ctx, "t1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if got.TraceID != "tr1" {
		t.Errorf("got %q, want %q", got.TraceID, "tr1")
	}

	if err := s.Delete(ctx, "t1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, ok, _ = s.Load(ctx, "t1")
	if ok {
		t.Error("expected miss after Delete")
	}
}
