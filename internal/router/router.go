// Package router implements the Intent Router: a heuristic-first,
// LLM-fallback classifier that decides whether a question needs a
// direct conversational reply, a clarifying question, or SQL-backed
// data (with or without a dashboard).
//
// The LLM fallback and schema style follow common/llm.Client.
package router

import (
	"context"
	"log/slog"
	"strings"

	"bisage.dev/gateway/common/llm"
	"bisage.dev/gateway/common/logger"
	"bisage.dev/gateway/internal/model"
)

// Router classifies a question into a RoutingDecision.
type Router struct {
	llmClient llm.Client
	useLLM    bool
}

// New returns a Router. When useLLM is false, or when llmClient is nil,
// unresolved heuristic cases fall back to a dashboard/sales default
// instead of calling out to a model.
func New(llmClient llm.Client, useLLM bool) *Router {
	return &Router{llmClient: llmClient, useLLM: useLLM}
}

// llmDecision is the structured-output shape requested from the model
// when heuristics can't resolve a question.
type llmDecision struct {
	ResponseType          string   `json:"response_type" jsonschema:"required,enum=dashboard,enum=data_only,enum=conversational,enum=clarification"`
	Domain                string   `json:"domain" jsonschema:"required,enum=sales,enum=inventory,enum=conversations,enum=escalations,enum=presale"`
	Reasoning             string   `json:"reasoning" jsonschema:"required"`
	ClarificationQuestion string   `json:"clarification_question"`
	ClarificationOptions  []string `json:"clarification_options"`
	UnderstoodContext     string   `json:"understood_context"`
}

// Route classifies question into a RoutingDecision, trying conversational
// and ambiguity patterns first, then keyword-based domain/intent
// detection, and only calling the LLM when none of those resolve it.
func (r *Router) Route(ctx context.Context, question string) model.RoutingDecision {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "gateway.router"})
	qLower := strings.ToLower(strings.TrimSpace(question))

	for _, p := range conversationalPatterns {
		if p.re.MatchString(qLower) {
			return model.RoutingDecision{
				ResponseType:   model.ResponseConversational,
				DirectResponse: directResponses[p.key],
				Confidence:     0.95,
				Reasoning:      "matched conversational pattern: " + p.key,
			}
		}
	}

	if isAmbiguous, kind := detectAmbiguity(qLower); isAmbiguous {
		clarification := generateClarification(qLower, kind)
		slog.DebugContext(ctx, "ambiguous query detected", "ambiguity_type", kind)
		return model.RoutingDecision{
			ResponseType:   model.ResponseClarification,
			Clarification:  &clarification,
			DirectResponse: joinContext(clarification),
			Confidence:     0.7,
			Reasoning:      "ambiguous query: " + kind,
		}
	}

	needsData := containsAny(qLower, dataKeywords)
	needsDashboard := containsAny(qLower, dashboardKeywords)
	if needsDashboard && !needsData {
		needsData = true
	}

	domain := detectDomain(qLower)

	switch {
	case !needsData && !needsDashboard:
		slog.DebugContext(ctx, "no clear keywords, falling back to llm semantic routing")
		return r.routeWithLLM(ctx, question)

	case needsDashboard:
		return model.RoutingDecision{
			ResponseType:   model.ResponseDashboard,
			NeedsSQL:       true,
			NeedsDashboard: true,
			NeedsNarrative: true,
			Domain:         model.Domain(domain),
			Confidence:     0.9,
			Reasoning:      "dashboard requested for domain: " + domain,
		}

	default:
		return model.RoutingDecision{
			ResponseType:   model.ResponseDataOnly,
			NeedsSQL:       true,
			NeedsDashboard: false,
			NeedsNarrative: true,
			Domain:         model.Domain(domain),
			Confidence:     0.85,
			Reasoning:      "data query for domain: " + domain,
		}
	}
}

func detectDomain(qLower string) string {
	best, bestScore := "", 0
	for domain, keywords := range domainKeywords {
		score := 0
		for _, kw := range keywords {
			if strings.Contains(qLower, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = domain, score
		}
	}
	if best == "" {
		return "sales"
	}
	return best
}

func detectAmbiguity(qLower string) (bool, string) {
	for _, p := range ambiguityPatterns {
		if p.re.MatchString(qLower) {
			return true, p.kind
		}
	}

	words := strings.Fields(qLower)
	if len(words) < 3 {
		hasKeyword := containsAny(qLower, dataKeywords) || containsAny(qLower, dashboardKeywords)
		if !hasKeyword {
			return true, "too_short"
		}
	}

	domainScores := map[string]int{}
	for domain, keywords := range domainKeywords {
		score := 0
		for _, kw := range keywords {
			if strings.Contains(qLower, kw) {
				score++
			}
		}
		if score > 0 {
			domainScores[domain] = score
		}
	}
	if len(domainScores) >= 2 {
		first, second := topTwoScores(domainScores)
		if first == second {
			return true, "multi_domain"
		}
	}

	if containsAny(qLower, []string{"comparar", "comparacion", "versus", "vs"}) {
		if !containsAny(qLower, timeReferenceKeywords) {
			return true, "comparison_without_period"
		}
	}

	return false, ""
}

func topTwoScores(scores map[string]int) (int, int) {
	first, second := 0, 0
	for _, s := range scores {
		switch {
		case s > first:
			second = first
			first = s
		case s > second:
			second = s
		}
	}
	return first, second
}

func joinContext(c model.ClarificationData) string {
	if c.UnderstoodContext == "" {
		return c.Question
	}
	return c.UnderstoodContext + "\n\n" + c.Question
}
