package stream

import (
	"context"
	"sync"
	"time"

	"bisage.dev/gateway/internal/model"
)

// Emitter is the producer side of a request's event channel. The
// orchestrator run holds the only reference and calls its methods in
// protocol order; Events drains on the HTTP goroutine. A blocked
// consumer (slow or gone client) never wedges the producer: emit
// selects on ctx.Done() so a cancelled request unwinds instead of
// leaking the goroutine.
type Emitter struct {
	events    chan Event
	ctx       context.Context
	closeOnce sync.Once
}

// NewEmitter returns an Emitter bound to ctx, with a channel buffered to
// capacity so a handful of data-agent_step events never blocks the
// producer waiting for the writer to catch up.
func NewEmitter(ctx context.Context, capacity int) *Emitter {
	if capacity <= 0 {
		capacity = 16
	}
	return &Emitter{events: make(chan Event, capacity), ctx: ctx}
}

// Events returns the read side for the HTTP writer to range over.
func (e *Emitter) Events() <-chan Event {
	return e.events
}

// Close signals no further events will be emitted. Safe to call more
// than once and from a defer regardless of how the run ended.
func (e *Emitter) Close() {
	e.closeOnce.Do(func() { close(e.events) })
}

func (e *Emitter) emit(typ string, data any) {
	select {
	case e.events <- Event{Type: typ, Data: data}:
	case <-e.ctx.Done():
	}
}

func (e *Emitter) Start(traceID, messageID string) {
	e.emit(EventStart, StartData{TraceID: traceID, MessageID: messageID, GraphVersion: GraphVersion})
}

func (e *Emitter) Trace(traceID, threadID string) {
	e.emit(EventTrace, TraceData{TraceID: traceID, ThreadID: threadID})
}

func (e *Emitter) TextStart(textID string) {
	e.emit(EventTextStart, TextStartData{TextID: textID})
}

func (e *Emitter) AgentStep(node string, status model.StepStatus, message, detail string) {
	e.emit(EventAgentStep, AgentStepData{
		Step:      node,
		Status:    string(status),
		Timestamp: time.Now().UTC(),
		Message:   message,
		Detail:    detail,
	})
}

func (e *Emitter) Dashboard(spec model.DashboardSpec) {
	e.emit(EventDashboard, spec)
}

func (e *Emitter) Payload(payload model.DataPayload) {
	e.emit(EventPayload, payload)
}

func (e *Emitter) TextDelta(text string) {
	e.emit(EventTextDelta, TextDeltaData{Text: text})
}

func (e *Emitter) TextEnd() {
	e.emit(EventTextEnd, nil)
}

func (e *Emitter) Finish(finishReason, messageID string) {
	e.emit(EventFinish, FinishData{FinishReason: finishReason, MessageID: messageID})
}

// Done emits the internal marker for the literal [DONE] sentinel; the
// SSE writer recognizes EventDone and writes DoneSentinel verbatim
// instead of JSON-encoding a nil body.
func (e *Emitter) Done() {
	e.emit(EventDone, nil)
}
