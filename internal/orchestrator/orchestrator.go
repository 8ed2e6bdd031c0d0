// Package orchestrator implements the request graph: a small explicit
// state machine threading Request through Router,
// DirectResponse/Clarification, DataExecutor, Reflection, and
// Composer, emitting progress over an internal/stream.Emitter in a
// fixed total order.
//
// The graph runs in-process (explicit node functions dispatched by
// name) rather than as a durable job queue —
// the orchestrator runs entirely within one HTTP request's lifetime.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bisage.dev/gateway/common/id"
	"bisage.dev/gateway/common/llm"
	"bisage.dev/gateway/common/logger"
	"bisage.dev/gateway/internal/cache"
	"bisage.dev/gateway/internal/checkpoint"
	"bisage.dev/gateway/internal/composer"
	"bisage.dev/gateway/internal/convstore"
	"bisage.dev/gateway/internal/executor"
	"bisage.dev/gateway/internal/model"
	"bisage.dev/gateway/internal/planner"
	"bisage.dev/gateway/internal/router"
	"bisage.dev/gateway/internal/stream"
)

// Node names, used both for dispatch and as the `step` field of
// data-agent_step events.
const (
	NodeRouter         = "router"
	NodeDirectResponse = "direct_response"
	NodeClarification  = "clarification"
	NodeDataExecutor   = "data_executor"
	NodeReflection     = "reflection"
	NodeComposer       = "composer"
	NodeEnd            = "end"
)

// MaxSteps is the hard recursion cap on the node loop;
// distinct from MaxRetries (the Reflection retry budget), which bounds
// how many times DataExecutor specifically may be retried.
const MaxSteps = 15

// MaxRetries is the Reflection retry budget.
const MaxRetries = 3

// llmCallTimeout and memoryBackendTimeout are the two per-call budgets
// beyond the database's own QueryTimeout.
const (
	llmCallTimeout       = 60 * time.Second
	memoryBackendTimeout = 10 * time.Second
)

// Orchestrator wires every node's collaborator together and drives the
// graph loop for one request at a time; it is safe for concurrent use
// since it holds no per-request mutable state of its own beyond the
// caches, which guard themselves.
type Orchestrator struct {
	router     *router.Router
	planner    *planner.Planner
	executor   *executor.Executor
	composer   *composer.Composer
	convStore  convstore.Store
	checkpoint checkpoint.Store
	caches     *cache.Caches
	llmClient  llm.Client
	historyN   int
}

// Deps bundles an Orchestrator's collaborators for New.
type Deps struct {
	Router     *router.Router
	Planner    *planner.Planner
	Executor   *executor.Executor
	Composer   *composer.Composer
	ConvStore  convstore.Store
	Checkpoint checkpoint.Store
	Caches     *cache.Caches
	LLMClient  llm.Client
	// HistoryTurns bounds how many recent conversation turns are loaded
	// as prompt context; 0 defaults to 6.
	HistoryTurns int
}

// New returns an Orchestrator built from deps.
func New(deps Deps) *Orchestrator {
	n := deps.HistoryTurns
	if n <= 0 {
		n = 6
	}
	return &Orchestrator{
		router:     deps.Router,
		planner:    deps.Planner,
		executor:   deps.Executor,
		composer:   deps.Composer,
		convStore:  deps.ConvStore,
		checkpoint: deps.Checkpoint,
		caches:     deps.Caches,
		llmClient:  deps.LLMClient,
		historyN:   n,
	}
}

// Run drives one request through the graph, emitting events on em in
// protocol order, and returns the final state for the caller to log or
// checkpoint further. Run returns no error: node failures are captured
// into state.LastError, and a context that is done (on entry or between
// nodes) ends the run with state.LastError set to ErrCancelled.
func (o *Orchestrator) Run(ctx context.Context, req model.Request, em *stream.Emitter) *model.OrchestratorState {
	traceID := id.NewString()
	messageID := id.NewString()
	threadID := req.ConversationID
	if threadID == "" {
		threadID = traceID
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "gateway.orchestrator",
		TraceID:   logger.Ptr(traceID),
		ThreadID:  logger.Ptr(threadID),
	})

	state := &model.OrchestratorState{
		Request:    req,
		MaxRetries: MaxRetries,
		TraceID:    traceID,
		ThreadID:   threadID,
	}

	em.Start(traceID, messageID)
	em.Trace(traceID, threadID)
	em.TextStart(messageID)

	// The user's turn is durable before any streaming happens, so a
	// cancelled run still leaves a record of what was asked.
	o.appendTurn(ctx, threadID, req.UserID, model.ConversationRoleUser, req.Question, nil)

	chatContext := o.loadChatContext(ctx, threadID)

	run := &runState{state: state, em: em}

	node := NodeRouter
	steps := 0
	for node != NodeEnd {
		if err := ctx.Err(); err != nil {
			state.LastError = ErrCancelled
			state.RecordStep(node, model.StepError, "request cancelled")
			em.AgentStep(node, model.StepError, "solicitud cancelada", "")
			node = NodeEnd
			break
		}

		steps++
		if steps > MaxSteps {
			state.LastError = ErrStepBudget
			state.RecordStep(node, model.StepError, "step budget exceeded")
			em.AgentStep(node, model.StepError, "se alcanzo el limite de pasos", "")
			node = NodeEnd
			break
		}

		next := o.dispatch(ctx, node, run, chatContext)
		node = next
	}

	var assistantReply string
	switch {
	case ctx.Err() != nil:
		// Cancelled: no partial spec or text is emitted.
	case state.LastError != nil:
		// Error terminal state: no data-dashboard or
		// data-payload is ever emitted, only a user-legible error message.
		msg := userErrorMessage(state.LastError)
		em.TextDelta(msg)
		assistantReply = msg
	case state.Spec != nil:
		o.streamNarrative(em, state)
		assistantReply = state.Spec.Conclusion
	case run.directText != "":
		em.TextDelta(run.directText)
		assistantReply = run.directText
	}
	if assistantReply != "" {
		o.appendTurn(ctx, threadID, req.UserID, model.ConversationRoleAssistant, assistantReply, nil)
	}

	em.TextEnd()

	finishReason := "stop"
	if state.LastError != nil {
		finishReason = "error"
	}
	em.Finish(finishReason, messageID)
	em.Done()

	o.saveCheckpoint(ctx, state)

	return state
}

// runState carries the one piece of per-run data that doesn't belong on
// model.OrchestratorState itself: the plain-text reply for a
// conversational or clarification turn, which never goes through the
// Composer and so never becomes a DashboardSpec.
type runState struct {
	state      *model.OrchestratorState
	em         *stream.Emitter
	directText string
}

func (o *Orchestrator) dispatch(ctx context.Context, node string, run *runState, chatContext string) string {
	sc := logger.StartSpan(ctx, "orchestrator."+node)
	defer sc.End()
	ctx = sc.Context()

	switch node {
	case NodeRouter:
		return o.runRouter(ctx, run)
	case NodeDirectResponse:
		return o.runDirectResponse(ctx, run)
	case NodeClarification:
		return o.runClarification(ctx, run)
	case NodeDataExecutor:
		return o.runDataExecutor(ctx, run, chatContext)
	case NodeReflection:
		return o.runReflection(run)
	case NodeComposer:
		return o.runComposer(ctx, run, chatContext)
	default:
		return NodeEnd
	}
}

func (o *Orchestrator) appendTurn(ctx context.Context, threadID, userID string, role model.ConversationRole, content string, metadata map[string]any) {
	if o.convStore == nil || content == "" {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, memoryBackendTimeout)
	defer cancel()
	_ = o.convStore.Append(cctx, model.ConversationTurn{
		ThreadID:  threadID,
		UserID:    userID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	})
}

func (o *Orchestrator) loadChatContext(ctx context.Context, threadID string) string {
	if o.convStore == nil {
		return ""
	}
	cctx, cancel := context.WithTimeout(ctx, memoryBackendTimeout)
	defer cancel()
	turns, err := o.convStore.Recent(cctx, threadID, o.historyN)
	if err != nil {
		return ""
	}
	return convstore.ContextString(turns)
}

func (o *Orchestrator) saveCheckpoint(ctx context.Context, state *model.OrchestratorState) {
	if o.checkpoint == nil {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, memoryBackendTimeout)
	defer cancel()
	_ = o.checkpoint.Save(cctx, checkpoint.FromState(state))
}

// streamNarrative emits the dashboard (always), the payload (only when
// the plan actually produced one), and the narrative as one or more
// text-delta events, at minimum the conclusion line.
func (o *Orchestrator) streamNarrative(em *stream.Emitter, state *model.OrchestratorState) {
	spec := *state.Spec
	em.Dashboard(spec)
	if state.Payload != nil {
		em.Payload(*state.Payload)
	}

	for _, block := range spec.Slots.Narrative {
		if strings.TrimSpace(block.Text) == "" {
			continue
		}
		em.TextDelta(block.Text + "\n")
	}
	if spec.Conclusion != "" {
		em.TextDelta(spec.Conclusion)
	}
}

// userErrorMessage renders err as the text-delta body for an error
// terminal state: always user-legible, never a raw Go
// error string leaking internal detail.
func userErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrRetryBudget):
		return "No pude completar la consulta tras varios intentos. Intenta reformular la pregunta o intentalo de nuevo en unos minutos."
	case errors.Is(err, ErrStepBudget):
		return "La consulta se volvio demasiado compleja para procesar. Intenta con una pregunta mas especifica."
	default:
		return "Ocurrio un error al procesar tu consulta. Por favor intenta de nuevo."
	}
}

func fmtDetail(err error) string {
	if err == nil {
		return ""
	}
	return logger.Truncate(fmt.Sprintf("%v", err), 200)
}
