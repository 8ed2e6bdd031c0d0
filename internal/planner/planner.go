// Package planner implements the Query Planner: it turns a question (plus
// optional date range and chat context) into a bounded QueryPlan drawn
// from the allowlist catalogue.
//
// Every branch below emits a combination of ids that exist in
// internal/allowlist.
package planner

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"bisage.dev/gateway/common/llm"
	"bisage.dev/gateway/common/logger"
	"bisage.dev/gateway/internal/allowlist"
	"bisage.dev/gateway/internal/model"
)

const llmCallTimeout = 60 * time.Second

// clearKeywords gates the heuristic bypass: when a question carries any
// of these, we skip the LLM entirely even if chat context is available.
var clearKeywords = []string{
	"inventario", "stock", "venta", "ventas", "producto", "orden", "ordenes",
	"agente", "escalado", "kpi", "resumen", "dashboard",
	"vendido", "facturado", "revenue", "ingresos", "ticket",
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
	"mes", "semana", "dia", "ano", "hoy", "ayer", "ultimos", "reciente",
}

// ambiguousRefs are pronoun-style references that can only be resolved
// with chat context, forcing the LLM escape hatch even when a clear
// keyword is also present.
var ambiguousRefs = []string{
	"eso", "esto", "aquello", "lo mismo", "esos datos", "lo anterior",
	"mas de eso", "y de eso", "que mas", "amplia", "detalla",
}

var monthNames = []string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Planner decides which allowlist queries answer a question.
type Planner struct {
	registry  *allowlist.Registry
	llmClient llm.Client
	useLLM    bool
}

// New returns a Planner bound to registry. When useLLM is false, or
// llmClient is nil, the ambiguous-reference escape hatch degrades to the
// heuristic plan instead of calling out to a model.
func New(registry *allowlist.Registry, llmClient llm.Client, useLLM bool) *Planner {
	return &Planner{registry: registry, llmClient: llmClient, useLLM: useLLM}
}

// llmPlan is the structured-output shape requested on the LLM route.
type llmPlan struct {
	QueryIDs  []string `json:"query_ids" jsonschema:"required"`
	Reasoning string   `json:"reasoning" jsonschema:"required"`
}

// Decide builds a QueryPlan for question. A question with a clear keyword
// and no ambiguous reference takes the heuristic route; any other question
// goes to the LLM, with chatContext as prompt context, when the LLM is
// enabled, and to the heuristic route otherwise.
func (p *Planner) Decide(ctx context.Context, question, chatContext string) model.QueryPlan {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "gateway.planner"})
	qLower := strings.ToLower(strings.TrimSpace(question))

	hasClearKeyword := containsAny(qLower, clearKeywords)
	hasAmbiguousRef := containsAny(qLower, ambiguousRefs)

	if hasClearKeyword && !hasAmbiguousRef {
		slog.DebugContext(ctx, "clear keywords present, using heuristic plan")
		return p.heuristicPlan(qLower)
	}

	if !p.useLLM || p.llmClient == nil {
		slog.DebugContext(ctx, "llm planner disabled, using heuristic plan")
		return p.heuristicPlan(qLower)
	}

	return p.decideWithLLM(ctx, question, chatContext, qLower)
}

func (p *Planner) decideWithLLM(ctx context.Context, question, chatContext, qLower string) model.QueryPlan {
	available := p.registry.AvailableQueries()
	var catalogueLines strings.Builder
	for id, desc := range available {
		catalogueLines.WriteString("- ")
		catalogueLines.WriteString(id)
		catalogueLines.WriteString(": ")
		catalogueLines.WriteString(desc)
		catalogueLines.WriteString("\n")
	}

	systemPrompt := "Eres un planificador de queries para un gateway de analytics de e-commerce.\n" +
		"SOLO puedes elegir query_ids de esta lista:\n" + catalogueLines.String() +
		"\nElige como maximo 3, las mas relevantes para la pregunta."

	userPrompt := "Pregunta: " + question
	if chatContext != "" {
		userPrompt = "Contexto de conversacion anterior:\n" + chatContext + "\n\n" + userPrompt
	}

	cctx, cancel := context.WithTimeout(ctx, llmCallTimeout)
	defer cancel()

	var plan llmPlan
	_, err := p.llmClient.Chat(cctx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		SchemaName:   "query_plan",
		Schema:       llm.GenerateSchema[llmPlan](),
		MaxTokens:    300,
		Temperature:  llm.Temp(0.2),
	}, &plan)
	if err != nil {
		slog.WarnContext(ctx, "planner llm fallback failed, using heuristic plan", "error", err)
		return p.heuristicPlan(qLower)
	}

	validIDs := make([]string, 0, len(plan.QueryIDs))
	for _, id := range plan.QueryIDs {
		if p.registry.Validate(id) {
			validIDs = append(validIDs, id)
		}
		if len(validIDs) == model.MaxPlanLength {
			break
		}
	}
	if len(validIDs) == 0 {
		slog.WarnContext(ctx, "llm plan had no valid query ids, using heuristic plan")
		return p.heuristicPlan(qLower)
	}

	return model.QueryPlan{QueryIDs: validIDs}
}

// heuristicPlan maps curated keyword families to fixed plans. Branch
// order is significant; the substring-collision cases are noted inline.
func (p *Planner) heuristicPlan(qLower string) model.QueryPlan {
	var ids []string

	switch {
	// Agente AI / interacciones.
	case containsAny(qLower, []string{"agente", "ai", "interacci", "bot", "asistente"}):
		ids = []string{"ai_interactions_summary", "recent_ai_interactions"}
		if strings.Contains(qLower, "escalad") {
			ids = append(ids, "escalated_cases")
		}

	case strings.Contains(qLower, "escalad"):
		ids = []string{"escalated_cases", "ai_interactions_summary"}

	case containsAny(qLower, monthNames):
		ids = []string{"kpi_sales_summary", "sales_by_month", "top_products_by_revenue"}

	case containsAny(qLower, []string{"ciclo", "estacionalidad", "temporada", "patron", "patrón"}):
		ids = []string{"kpi_sales_summary", "sales_by_month", "ts_sales_by_day"}

	case containsAny(qLower, []string{"mejor mes", "peor mes", "mes que mas", "cual mes", "que mes"}):
		ids = []string{"kpi_sales_summary", "sales_by_month", "top_products_by_revenue"}

	case containsAny(qLower, []string{"insight", "analisis profundo", "analiza todo", "resumen ejecutivo", "executive summary"}):
		ids = []string{"kpi_sales_summary", "ts_sales_by_day", "top_products_by_revenue"}

	case containsAny(qLower, []string{"pareto", "80/20", "80-20", "concentracion", "abc"}):
		ids = []string{"kpi_sales_summary", "top_products_by_revenue", "ts_sales_by_day"}

	case containsAny(qLower, []string{"ticket", "promedio de compra", "valor promedio", "orden promedio"}):
		ids = []string{"kpi_sales_summary", "ts_sales_by_day", "recent_orders"}

	case containsAny(qLower, []string{"mas vendido", "mas vendidos", "top producto", "top productos", "mejores producto", "mejores productos"}):
		ids = []string{"kpi_sales_summary", "top_products_by_revenue", "sales_by_month"}

	// Inventario before ventas: "inventario" contains "venta" as a substring.
	case containsAny(qLower, []string{"inventario", "stock", "existencia"}):
		if containsAny(qLower, []string{"bajo", "alerta", "falta", "critico"}) {
			ids = []string{"kpi_inventory_summary", "products_low_stock", "stock_reorder_analysis"}
		} else {
			ids = []string{"kpi_inventory_summary", "stock_reorder_analysis", "stock_alerts"}
		}

	// Generic "producto" without a sales angle.
	case strings.Contains(qLower, "producto") && !containsAny(qLower, []string{"vendido", "venta", "revenue"}):
		ids = []string{"kpi_inventory_summary", "products_inventory", "top_products_by_sales"}

	// Preventa before ventas: "preventa" contains "venta" as a substring.
	// These queries may return nothing in deployments without a
	// preventa_queries table; the executor tolerates that per-query
	// failure rather than failing the whole plan.
	case strings.Contains(qLower, "preventa"),
		containsAny(qLower, []string{"consulta", "pregunta"}) && !containsAny(qLower, []string{"venta", "factura", "ingreso", "revenue"}):
		ids = []string{"preventa_summary", "recent_preventa_queries"}

	case containsAny(qLower, []string{"venta", "factura", "ingreso", "revenue", "vendido", "vendieron", "facturado"}):
		ids = []string{"kpi_sales_summary", "ts_sales_by_day", "top_products_by_revenue"}

	// Quiebre/reposicion. ts_sales_by_day gives the time-series angle
	// the chart needs alongside the reorder analysis.
	case containsAny(qLower, []string{"quebrar", "quiebre", "agotar", "agotarse", "agotando", "faltante", "reponer", "reposicion"}):
		ids = []string{"kpi_sales_summary", "stock_reorder_analysis", "ts_sales_by_day"}

	// Capped to MaxPlanLength (3).
	case containsAny(qLower, []string{"aumentar stock", "aumentar inventario", "ponderar", "priorizar", "debo comprar"}):
		ids = []string{"kpi_sales_summary", "stock_reorder_analysis", "products_low_stock"}

	default:
		ids = []string{"kpi_sales_summary", "ts_sales_by_day", "top_products_by_revenue"}
	}

	if len(ids) > model.MaxPlanLength {
		ids = ids[:model.MaxPlanLength]
	}

	return model.QueryPlan{QueryIDs: ids}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
