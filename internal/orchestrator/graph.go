package orchestrator

import (
	"context"
	"fmt"

	"bisage.dev/gateway/internal/cache"
	"bisage.dev/gateway/internal/dateparse"
	"bisage.dev/gateway/internal/model"
)

// runRouter classifies the question, consulting and populating the
// Router cache (10 min TTL, capacity 200, key = question text).
func (o *Orchestrator) runRouter(ctx context.Context, run *runState) string {
	state := run.state
	question := state.Request.Question

	// Direct-response cache (1 h TTL, capacity 50): a question already
	// answered conversationally skips classification entirely.
	if o.caches != nil {
		var direct string
		if ok, _ := o.caches.Direct.Get(ctx, cache.Key("direct", question), &direct); ok && direct != "" {
			decision := model.RoutingDecision{
				ResponseType:   model.ResponseConversational,
				DirectResponse: direct,
				Confidence:     0.95,
				Reasoning:      "direct response cache hit",
			}
			state.RoutingDecision = &decision
			state.RecordStep(NodeRouter, model.StepSuccess, "direct cache hit")
			run.em.AgentStep(NodeRouter, model.StepSuccess, "respuesta conversacional (cache)", "")
			return NodeDirectResponse
		}
	}

	var decision model.RoutingDecision
	key := cache.Key("router", question)
	if o.caches != nil {
		if ok, _ := o.caches.Router.Get(ctx, key, &decision); ok {
			state.RoutingDecision = &decision
			state.RecordStep(NodeRouter, model.StepSuccess, "cache hit")
			run.em.AgentStep(NodeRouter, model.StepSuccess, "decision de ruteo (cache)", string(decision.Domain))
			return nextAfterRouting(decision)
		}
	}

	decision = o.router.Route(ctx, question)
	state.RoutingDecision = &decision
	if o.caches != nil {
		_ = o.caches.Router.Set(ctx, key, decision, cache.RouterTTL)
	}

	domain := routingDomain(decision)
	state.RecordStep(NodeRouter, model.StepSuccess, decision.Reasoning)
	run.em.AgentStep(NodeRouter, model.StepSuccess, "pregunta clasificada", domain)

	return nextAfterRouting(decision)
}

func routingDomain(decision model.RoutingDecision) string {
	if decision.Domain != "" {
		return string(decision.Domain)
	}
	return string(decision.ResponseType)
}

func nextAfterRouting(decision model.RoutingDecision) string {
	switch decision.ResponseType {
	case model.ResponseConversational:
		return NodeDirectResponse
	case model.ResponseClarification:
		return NodeClarification
	default:
		return NodeDataExecutor
	}
}

// runDirectResponse serves the Router's canned conversational reply
// without ever invoking the Planner/Executor/Composer.
func (o *Orchestrator) runDirectResponse(ctx context.Context, run *runState) string {
	state := run.state
	run.directText = state.RoutingDecision.DirectResponse
	if o.caches != nil && run.directText != "" {
		_ = o.caches.Direct.Set(ctx, cache.Key("direct", state.Request.Question), run.directText, cache.DirectTTL)
	}
	state.RecordStep(NodeDirectResponse, model.StepSuccess, "respuesta directa")
	run.em.AgentStep(NodeDirectResponse, model.StepSuccess, "respuesta conversacional", "")
	return NodeEnd
}

// runClarification consults an LLM on whether the ambiguity the Router
// flagged can actually be resolved from the question and its
// understood_context alone, before interrupting the user to ask.
// When it can, the request is re-routed into DataExecutor with the
// inferred domain instead of interrupting the user; otherwise the
// Router's generated clarifying question is asked.
func (o *Orchestrator) runClarification(ctx context.Context, run *runState) string {
	state := run.state
	c := state.RoutingDecision.Clarification

	if c != nil {
		if eval, ok := o.evaluateClarification(ctx, state.Request.Question, *c); ok && eval.CanInfer {
			state.RoutingDecision.ResponseType = model.ResponseDashboard
			state.RoutingDecision.NeedsSQL = true
			state.RoutingDecision.NeedsDashboard = true
			state.RoutingDecision.NeedsNarrative = true
			if eval.Domain != "" {
				state.RoutingDecision.Domain = model.Domain(eval.Domain)
			}
			state.RecordStep(NodeClarification, model.StepSuccess, "llm infirio la intencion: "+eval.Reasoning)
			run.em.AgentStep(NodeClarification, model.StepSuccess, "intencion inferida, se omite la aclaracion", "")
			return NodeDataExecutor
		}
	}

	if c == nil {
		run.directText = state.RoutingDecision.DirectResponse
	} else {
		run.directText = c.Question
	}
	state.RecordStep(NodeClarification, model.StepSuccess, "se solicito aclaracion")
	run.em.AgentStep(NodeClarification, model.StepSuccess, "pregunta de aclaracion", "")
	return NodeEnd
}

// runDataExecutor plans and executes the SQL allowlist queries needed
// to answer the question, handling both the plain and comparison-mode
// shapes depending on what the question's date phrase resolves to.
func (o *Orchestrator) runDataExecutor(ctx context.Context, run *runState, chatContext string) string {
	state := run.state
	question := state.Request.Question

	if state.Plan == nil {
		plan := o.decidePlan(ctx, question, chatContext)
		state.Plan = &plan
	}

	dateFrom, dateTo := state.Request.DateFrom, state.Request.DateTo
	comparison := dateparse.IsComparisonQuery(question)
	var rng model.ComparisonDateRange
	if comparison {
		rng = dateparse.ExtractComparisonDates(question)
	} else if dateFrom == "" && dateTo == "" {
		dateFrom, dateTo = dateparse.ExtractDateRange(question)
	}

	key := cache.Key("executor", question, dateFrom, dateTo)
	if comparison {
		key = cache.Key("executor", question, rng.Current.From, rng.Current.To, rng.Previous.From, rng.Previous.To)
	}

	var (
		payload *model.DataPayload
		err     error
	)

	// Retries run with a narrowed plan, so only a first attempt may be
	// answered from (or written back to) the executor-result cache.
	if state.RetryCount == 0 && o.caches != nil {
		var cached model.DataPayload
		if ok, _ := o.caches.Planner.Get(ctx, key, &cached); ok {
			payload = &cached
		}
	}
	if payload == nil {
		if comparison {
			payload, err = o.executor.ExecuteComparison(ctx, *state.Plan, rng)
		} else {
			payload, err = o.executor.Execute(ctx, *state.Plan, dateFrom, dateTo)
		}
		if err == nil && state.RetryCount == 0 && o.caches != nil {
			_ = o.caches.Planner.Set(ctx, key, payload, cache.PlannerTTL)
		}
	}

	state.Payload = payload
	if err != nil {
		state.LastError = err
		state.RecordStep(NodeDataExecutor, model.StepError, fmtDetail(err))
		run.em.AgentStep(NodeDataExecutor, model.StepError, "fallo la ejecucion de consultas", fmtDetail(err))
		return NodeReflection
	}

	state.LastError = nil
	state.RecordStep(NodeDataExecutor, model.StepSuccess, fmt.Sprintf("%d datasets", len(payload.DatasetsMeta)))
	run.em.AgentStep(NodeDataExecutor, model.StepSuccess, "datos obtenidos", "")

	// Data-only requests skip the full Composer: a reduced spec built
	// straight from the payload's refs, summary line only.
	if state.RoutingDecision != nil && !state.RoutingDecision.NeedsDashboard {
		spec := o.composer.ComposeMinimal(question, payload)
		state.Spec = &spec
		state.RecordStep(NodeDataExecutor, model.StepSuccess, "panel minimo compuesto")
		return NodeEnd
	}
	return NodeComposer
}

func (o *Orchestrator) decidePlan(ctx context.Context, question, chatContext string) model.QueryPlan {
	key := cache.Key("planner", question, chatContext)
	if o.caches != nil {
		var cached model.QueryPlan
		if ok, _ := o.caches.Planner.Get(ctx, key, &cached); ok {
			return cached
		}
	}
	plan := o.planner.Decide(ctx, question, chatContext)
	if o.caches != nil {
		_ = o.caches.Planner.Set(ctx, key, plan, cache.PlannerTTL)
	}
	return plan
}

// runReflection decides whether a failed DataExecutor pass deserves
// another attempt. Each retry narrows the plan to its first query, a
// cheaper subset that is more likely to succeed.
func (o *Orchestrator) runReflection(run *runState) string {
	state := run.state

	if state.RetryCount >= state.MaxRetries {
		state.LastError = ErrRetryBudget
		state.RecordStep(NodeReflection, model.StepError, "retry budget exhausted")
		run.em.AgentStep(NodeReflection, model.StepError, "se agoto el presupuesto de reintentos", "")
		return NodeEnd
	}

	state.RetryCount++
	if state.Plan != nil && len(state.Plan.QueryIDs) > 1 {
		narrowed := model.QueryPlan{QueryIDs: state.Plan.QueryIDs[:1], Params: state.Plan.Params}
		state.Plan = &narrowed
	}

	state.RecordStep(NodeReflection, model.StepProgress, fmt.Sprintf("retry %d/%d", state.RetryCount, state.MaxRetries))
	run.em.AgentStep(NodeReflection, model.StepProgress, "reintentando ejecucion", "")
	return NodeDataExecutor
}

// runComposer builds the final DashboardSpec, consulting the Composer
// cache (3 min TTL, capacity 50, key = question).
func (o *Orchestrator) runComposer(ctx context.Context, run *runState, chatContext string) string {
	state := run.state
	question := state.Request.Question

	key := cache.Key("composer", question)
	var spec model.DashboardSpec
	if o.caches != nil {
		if ok, _ := o.caches.Composer.Get(ctx, key, &spec); ok && state.Payload != nil {
			state.Spec = &spec
			state.RecordStep(NodeComposer, model.StepSuccess, "cache hit")
			run.em.AgentStep(NodeComposer, model.StepSuccess, "panel compuesto (cache)", "")
			return NodeEnd
		}
	}

	payload := state.Payload
	if payload == nil {
		payload = model.NewDataPayload()
	}
	spec = o.composer.Compose(ctx, question, payload, chatContext)
	state.Spec = &spec

	if o.caches != nil {
		_ = o.caches.Composer.Set(ctx, key, spec, cache.ComposerTTL)
	}

	state.RecordStep(NodeComposer, model.StepSuccess, "panel compuesto")
	run.em.AgentStep(NodeComposer, model.StepSuccess, "panel compuesto", "")
	return NodeEnd
}
