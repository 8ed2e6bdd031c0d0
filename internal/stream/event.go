// Package stream implements the strictly-ordered Server-Sent-Events
// protocol the orchestrator speaks to its HTTP caller: start,
// data-trace, text-start, zero-or-more data-agent_step, zero-or-one
// data-dashboard, zero-or-one data-payload, zero-or-more text-delta,
// text-end, finish, then the literal `[DONE]` sentinel.
//
// A single task per request writes Events onto a bounded channel that
// the HTTP writer drains. Order holds because only one producer, the
// orchestrator run, ever exists per request.
package stream

import "time"

// Event names, in the exact order a compliant stream emits them.
const (
	EventStart     = "start"
	EventTrace     = "data-trace"
	EventTextStart = "text-start"
	EventAgentStep = "data-agent_step"
	EventDashboard = "data-dashboard"
	EventPayload   = "data-payload"
	EventTextDelta = "text-delta"
	EventTextEnd   = "text-end"
	EventFinish    = "finish"
	EventDone      = "done" // internal marker; the wire form is the literal "[DONE]"
)

// DoneSentinel is written verbatim as the final SSE data line.
const DoneSentinel = "[DONE]"

// GraphVersion identifies the orchestrator graph shape, surfaced in the
// start event so clients can detect a server-side graph change.
const GraphVersion = "1"

// Event is one frame of the protocol: Type names the SSE event, Data is
// marshaled as its JSON body (EventDone carries no data).
type Event struct {
	Type string
	Data any
}

type StartData struct {
	TraceID      string `json:"trace_id"`
	MessageID    string `json:"message_id"`
	GraphVersion string `json:"graph_version"`
}

type TraceData struct {
	TraceID  string `json:"trace_id"`
	ThreadID string `json:"thread_id"`
}

type TextStartData struct {
	TextID string `json:"text_id"`
}

type AgentStepData struct {
	Step      string    `json:"step"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Detail    string    `json:"detail,omitempty"`
}

type TextDeltaData struct {
	Text string `json:"text"`
}

type FinishData struct {
	FinishReason string `json:"finishReason"`
	MessageID    string `json:"messageId"`
}
