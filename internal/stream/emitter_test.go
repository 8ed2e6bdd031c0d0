package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bisage.dev/gateway/internal/model"
)

func TestEmitter_EmitsInProtocolOrder(t *testing.T) {
	ctx := context.Background()
	e := NewEmitter(ctx, 16)

	go func() {
		e.Start("trace1", "msg1")
		e.Trace("trace1", "thread1")
		e.TextStart("text1")
		e.AgentStep("router", model.StepSuccess, "routed to sales", "")
		e.Dashboard(model.DashboardSpec{})
		e.TextDelta("hola")
		e.TextEnd()
		e.Finish("stop", "msg1")
		e.Done()
		e.Close()
	}()

	var gotTypes []string
	for ev := range e.Events() {
		gotTypes = append(gotTypes, ev.Type)
	}

	want := []string{
		EventStart, EventTrace, EventTextStart, EventAgentStep,
		EventDashboard, EventTextDelta, EventTextEnd, EventFinish, EventDone,
	}
	if len(gotTypes) != len(want) {
		t.Fatalf("got %d events, want %d: %v", len(gotTypes), len(want), gotTypes)
	}
	for i := range want {
		if gotTypes[i] != want[i] {
			t.Errorf("event %d: got %q, want %q", i, gotTypes[i], want[i])
		}
	}
}

func TestEmitter_ContextCancelUnblocksProducer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := NewEmitter(ctx, 1) // tiny buffer: later sends must block without a consumer

	done := make(chan struct{})
	go func() {
		// No consumer ever reads; without the ctx.Done() escape this
		// would block forever once the buffer fills.
		for i := 0; i < 5; i++ {
			e.TextDelta("x")
		}
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("producer did not unblock after context cancellation")
	}
}

func TestWrite_DoneSentinelIsLiteral(t *testing.T) {
	w := httptest.NewRecorder()
	if err := Write(w, Event{Type: EventDone}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	body := w.Body.String()
	if !strings.Contains(body, "data: [DONE]") {
		t.Errorf("expected literal [DONE] sentinel, got %q", body)
	}
	if strings.Contains(body, "event:") {
		t.Errorf("expected no event: line for done sentinel, got %q", body)
	}
}

func TestWrite_JSONEventHasEventAndDataLines(t *testing.T) {
	w := httptest.NewRecorder()
	err := Write(w, Event{Type: EventFinish, Data: FinishData{FinishReason: "stop", MessageID: "m1"}})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: finish") {
		t.Errorf("expected event: finish line, got %q", body)
	}
	if !strings.Contains(body, `"finishReason":"stop"`) {
		t.Errorf("expected JSON body, got %q", body)
	}
}
