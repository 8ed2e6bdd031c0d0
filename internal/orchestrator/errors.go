package orchestrator

import "errors"

// None of these ever escape Run: every failure is captured into
// OrchestratorState.LastError and a step record.
var (
	ErrCancelled   = errors.New("orchestrator: request cancelled")
	ErrStepBudget  = errors.New("orchestrator: exceeded maximum step count")
	ErrRetryBudget = errors.New("orchestrator: exceeded retry budget")
)
