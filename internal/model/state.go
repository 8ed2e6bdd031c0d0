package model

import "time"

// StepStatus is the outcome recorded for one orchestrator node transition.
type StepStatus string

const (
	StepProgress StepStatus = "progress"
	StepSuccess  StepStatus = "success"
	StepError    StepStatus = "error"
	StepSkipped  StepStatus = "skipped"
)

// StepRecord is one entry in an OrchestratorState's trajectory trail.
type StepRecord struct {
	Node      string     `json:"node"`
	Timestamp time.Time  `json:"timestamp"`
	Status    StepStatus `json:"status"`
	Detail    string     `json:"detail,omitempty"`
}

// OrchestratorState is in-request state, never persisted between turns.
// The Orchestrator exclusively owns this value for the lifetime of one
// request.
type OrchestratorState struct {
	Request         Request
	RoutingDecision *RoutingDecision
	Plan            *QueryPlan
	Payload         *DataPayload
	Spec            *DashboardSpec
	RetryCount      int
	MaxRetries      int
	LastError       error
	TraceID         string
	ThreadID        string
	Steps           []StepRecord
}

// RecordStep appends a step record to the trajectory trail.
func (s *OrchestratorState) RecordStep(node string, status StepStatus, detail string) {
	s.Steps = append(s.Steps, StepRecord{
		Node:      node,
		Timestamp: time.Now(),
		Status:    status,
		Detail:    detail,
	})
}
