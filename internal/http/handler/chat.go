// Package handler implements the gateway's HTTP surface: the two
// streaming endpoints that speak the internal/stream protocol and the
// non-streaming /insights/run variant that drains the same orchestrator
// run into one JSON response.
package handler

import (
	"net/http"
	"time"

	"bisage.dev/gateway/internal/model"
	"bisage.dev/gateway/internal/orchestrator"
	"bisage.dev/gateway/internal/stream"
	"github.com/gin-gonic/gin"
)

// ChatHandler serves every endpoint that drives an orchestrator run:
// the two SSE-framed endpoints and the synchronous JSON one.
type ChatHandler struct {
	orch *orchestrator.Orchestrator
}

func NewChatHandler(orch *orchestrator.Orchestrator) *ChatHandler {
	return &ChatHandler{orch: orch}
}

// chatRequest is the shared body shape for /chat/stream, /insights/run,
// and /insights/stream.
type chatRequest struct {
	Question       string         `json:"question" binding:"required"`
	DateFrom       string         `json:"date_from"`
	DateTo         string         `json:"date_to"`
	Filters        map[string]any `json:"filters"`
	ConversationID string         `json:"conversation_id"`
	UserID         string         `json:"user_id"`
}

func (r chatRequest) toRequest() model.Request {
	return model.Request{
		Question:       r.Question,
		DateFrom:       r.DateFrom,
		DateTo:         r.DateTo,
		Filters:        r.Filters,
		ConversationID: r.ConversationID,
		UserID:         r.UserID,
	}
}

// Stream serves POST /chat/stream and POST /insights/stream: both speak
// the exact same event sequence, so one handler backs both routes.
func (h *ChatHandler) Stream(c *gin.Context) {
	var body chatRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}

	ctx := c.Request.Context()
	em := stream.NewEmitter(ctx, 16)

	go func() {
		defer em.Close()
		h.orch.Run(ctx, body.toRequest(), em)
	}()

	stream.SetHeaders(c.Writer)
	c.Status(http.StatusOK)
	flusher.Flush()

	for ev := range em.Events() {
		if err := stream.Write(c.Writer, ev); err != nil {
			return
		}
		flusher.Flush()
	}
}

// insightsResponse is the non-streaming shape of POST /insights/run.
type insightsResponse struct {
	Success         bool                 `json:"success"`
	TraceID         string               `json:"trace_id"`
	DashboardSpec   *model.DashboardSpec `json:"dashboard_spec,omitempty"`
	DataPayload     *model.DataPayload   `json:"data_payload,omitempty"`
	DataMeta        []model.DatasetMeta  `json:"data_meta,omitempty"`
	Error           string               `json:"error,omitempty"`
	ExecutionTimeMs int64                `json:"execution_time_ms"`
}

// Run serves POST /insights/run: it drives the same orchestrator graph
// as the streaming endpoints but drains the event channel internally
// and returns one JSON document once the run reaches End.
func (h *ChatHandler) Run(c *gin.Context) {
	var body chatRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	em := stream.NewEmitter(ctx, 16)

	start := time.Now()
	var state *model.OrchestratorState
	done := make(chan struct{})
	go func() {
		defer em.Close()
		state = h.orch.Run(ctx, body.toRequest(), em)
		close(done)
	}()

	// Drain every event so the orchestrator never blocks on a channel
	// nobody is reading; Run's own return value already carries the
	// final state this handler reports.
	for range em.Events() {
	}
	<-done

	resp := insightsResponse{
		TraceID:         state.TraceID,
		DataMeta:        datasetMeta(state.Payload),
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
	if state.Spec != nil {
		resp.DashboardSpec = state.Spec
	}
	resp.DataPayload = state.Payload
	if state.LastError != nil {
		resp.Error = state.LastError.Error()
	} else {
		resp.Success = true
	}

	status := http.StatusOK
	if state.LastError != nil {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, resp)
}

func datasetMeta(payload *model.DataPayload) []model.DatasetMeta {
	if payload == nil {
		return nil
	}
	return payload.DatasetsMeta
}
