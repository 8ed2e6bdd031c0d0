// Package checkpoint persists a snapshot of orchestrator state keyed by
// thread_id. The backend is optional; an in-memory equivalent stands in
// when none is configured. Unlike
// model.OrchestratorState itself (which is never persisted and owned
// exclusively by one in-flight request, per its own doc comment), a
// Snapshot is an explicit, serializable copy taken at a resume point —
// the LastError is flattened to a string since errors do not round-trip
// through JSON.
package checkpoint

import (
	"context"
	"time"

	"bisage.dev/gateway/internal/model"
)

// Snapshot is the serializable projection of model.OrchestratorState
// saved at points where a conversation might be resumed later (after a
// clarification question, or after a process restart mid-run).
type Snapshot struct {
	ThreadID   string                 `json:"thread_id"`
	TraceID    string                 `json:"trace_id"`
	Request    model.Request          `json:"request"`
	Routing    *model.RoutingDecision `json:"routing,omitempty"`
	Plan       *model.QueryPlan       `json:"plan,omitempty"`
	Spec       *model.DashboardSpec   `json:"spec,omitempty"`
	RetryCount int                    `json:"retry_count"`
	LastError  string                 `json:"last_error,omitempty"`
	Steps      []model.StepRecord     `json:"steps,omitempty"`
	SavedAt    time.Time              `json:"saved_at"`
}

// FromState projects an in-flight OrchestratorState into a Snapshot.
func FromState(state *model.OrchestratorState) Snapshot {
	snap := Snapshot{
		ThreadID:   state.ThreadID,
		TraceID:    state.TraceID,
		Request:    state.Request,
		Routing:    state.RoutingDecision,
		Plan:       state.Plan,
		Spec:       state.Spec,
		RetryCount: state.RetryCount,
		Steps:      state.Steps,
	}
	if state.LastError != nil {
		snap.LastError = state.LastError.Error()
	}
	return snap
}

// Store saves and loads Snapshots by thread_id. Implementations never
// error on a missing thread_id; Load reports that case via the bool.
type Store interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context, threadID string) (Snapshot, bool, error)
	Delete(ctx context.Context, threadID string) error
}
