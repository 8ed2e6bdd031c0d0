package router

import (
	"context"
	"log/slog"
	"time"

	"bisage.dev/gateway/common/llm"
	"bisage.dev/gateway/internal/model"
)

const llmCallTimeout = 60 * time.Second

const routerSystemPrompt = `Eres un clasificador de intenciones para un sistema de analytics de e-commerce.
Analiza la pregunta del usuario y determina:
1. response_type: "dashboard" (necesita visualizacion/analisis de datos), "data_only" (solo numeros, sin graficos), "conversational" (saludo/ayuda/pregunta general), "clarification" (la pregunta es ambigua y necesitas mas contexto)
2. domain: "sales" (ventas/ordenes), "inventory" (productos/stock), "conversations" (agente AI/escalados), "escalations" (casos escalados), "presale" (preventa)
3. Si response_type es "clarification", incluye clarification_question, clarification_options y understood_context.

Usa "clarification" solo cuando la pregunta es muy vaga o corta, falta contexto critico, o hay multiples interpretaciones validas.`

// routeWithLLM is the semantic-classification escape hatch used when
// heuristics find no clear data/dashboard keyword at all. On any LLM
// failure (including the client being disabled) it falls back to the
// safe default: dashboard routing over sales.
func (r *Router) routeWithLLM(ctx context.Context, question string) model.RoutingDecision {
	fallback := model.RoutingDecision{
		ResponseType:   model.ResponseDashboard,
		NeedsSQL:       true,
		NeedsDashboard: true,
		NeedsNarrative: true,
		Domain:         model.DomainSales,
		Confidence:     0.5,
		Reasoning:      "llm routing unavailable, defaulting to dashboard/sales",
	}

	if !r.useLLM || r.llmClient == nil {
		return fallback
	}

	cctx, cancel := context.WithTimeout(ctx, llmCallTimeout)
	defer cancel()

	var decision llmDecision
	_, err := r.llmClient.Chat(cctx, llm.Request{
		SystemPrompt: routerSystemPrompt,
		UserPrompt:   "Pregunta: " + question,
		SchemaName:   "routing_decision",
		Schema:       llm.GenerateSchema[llmDecision](),
		MaxTokens:    400,
		Temperature:  llm.Temp(0.1),
	}, &decision)
	if err != nil {
		slog.WarnContext(ctx, "router llm fallback failed", "error", err)
		return fallback
	}

	switch decision.ResponseType {
	case "clarification":
		clarification := model.ClarificationData{
			Question:          decision.ClarificationQuestion,
			Options:           decision.ClarificationOptions,
			UnderstoodContext: decision.UnderstoodContext,
		}
		if clarification.Question == "" {
			clarification.Question = "Podrias ser mas especifico?"
		}
		return model.RoutingDecision{
			ResponseType:   model.ResponseClarification,
			Clarification:  &clarification,
			DirectResponse: joinContext(clarification),
			Confidence:     0.75,
			Reasoning:      "llm semantic clarification: " + decision.Reasoning,
		}

	case "conversational":
		return model.RoutingDecision{
			ResponseType:   model.ResponseConversational,
			DirectResponse: directResponses["help"],
			Confidence:     0.8,
			Reasoning:      "llm semantic: " + decision.Reasoning,
		}

	case "data_only":
		return model.RoutingDecision{
			ResponseType:   model.ResponseDataOnly,
			NeedsSQL:       true,
			NeedsNarrative: true,
			Domain:         domainOrDefault(decision.Domain),
			Confidence:     0.8,
			Reasoning:      "llm semantic: " + decision.Reasoning,
		}

	default: // "dashboard" and anything unrecognized
		return model.RoutingDecision{
			ResponseType:   model.ResponseDashboard,
			NeedsSQL:       true,
			NeedsDashboard: true,
			NeedsNarrative: true,
			Domain:         domainOrDefault(decision.Domain),
			Confidence:     0.8,
			Reasoning:      "llm semantic: " + decision.Reasoning,
		}
	}
}

func domainOrDefault(d string) model.Domain {
	if d == "" {
		return model.DomainSales
	}
	return model.Domain(d)
}
