package composer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"bisage.dev/gateway/common/llm"
	"bisage.dev/gateway/internal/model"
)

const llmCallTimeout = 60 * time.Second

// generateNarrative picks the heuristic or LLM-contextual path per the
// composer's configuration: DEMO_MODE always forces the heuristic path,
// PRESENTATION_USE_LLM gates the contextual one.
func (c *Composer) generateNarrative(ctx context.Context, question string, payload *model.DataPayload, chatContext string) ([]model.NarrativeBlock, string) {
	if c.demoMode || !c.useLLM || c.llmClient == nil {
		return smartNarrative(payload), ""
	}
	return c.contextualNarrative(ctx, question, payload, chatContext)
}

// smartNarrative produces deterministic, data-driven insights without an
// LLM call.
func smartNarrative(payload *model.DataPayload) []model.NarrativeBlock {
	var blocks []model.NarrativeBlock
	var insights []string

	if payload.Comparison != nil {
		return comparisonNarrative(payload.Comparison)
	}

	if sales, ok := payload.Kpis["total_sales"]; ok {
		orders := payload.Kpis["total_orders"]
		avgTicket := payload.Kpis["avg_order_value"]
		if avgTicket == 0 && orders > 0 {
			avgTicket = sales / orders
		}
		units := payload.Kpis["total_units"]

		blocks = append(blocks, model.NarrativeBlock{
			Type: model.NarrativeHeadline,
			Text: fmt.Sprintf("Facturacion de $%.0f en %.0f ordenes procesadas.", sales, orders),
		})

		switch {
		case avgTicket > 100000:
			insights = append(insights, fmt.Sprintf("Ticket promedio alto ($%.0f) indica productos de alto valor o compras en bulk.", avgTicket))
		case avgTicket > 50000:
			insights = append(insights, fmt.Sprintf("Ticket promedio saludable de $%.0f con buena conversion.", avgTicket))
		default:
			insights = append(insights, fmt.Sprintf("Ticket promedio de $%.0f. Considerar estrategias de upselling.", avgTicket))
		}

		if units > 0 && orders > 0 {
			unitsPerOrder := units / orders
			if unitsPerOrder > 2 {
				insights = append(insights, fmt.Sprintf("Promedio de %.1f unidades/orden sugiere compras multiples o bundles efectivos.", unitsPerOrder))
			} else {
				insights = append(insights, fmt.Sprintf("%.0f unidades vendidas. Oportunidad de incrementar items por carrito.", units))
			}
		}
	} else if interactions, ok := payload.Kpis["total_interactions"]; ok {
		escRate := payload.Kpis["escalation_rate"]

		blocks = append(blocks, model.NarrativeBlock{
			Type: model.NarrativeHeadline,
			Text: fmt.Sprintf("Agente AI proceso %.0f interacciones con %.1f%% resolucion automatica.", interactions, 100-escRate),
		})

		switch {
		case escRate < 10:
			insights = append(insights, fmt.Sprintf("Excelente tasa de escalamiento (%.1f%%). El AI resuelve la mayoria de consultas.", escRate))
		case escRate < 25:
			insights = append(insights, fmt.Sprintf("Tasa de escalamiento moderada (%.1f%%). Revisar casos comunes para mejorar.", escRate))
		default:
			insights = append(insights, fmt.Sprintf("Alta tasa de escalamiento (%.1f%%). Requiere entrenamiento adicional del modelo.", escRate))
		}
	}

	for _, ts := range payload.TimeSeries {
		if len(ts.Points) < 2 {
			continue
		}
		first, last := ts.Points[0].Value, ts.Points[len(ts.Points)-1].Value
		changePct := 0.0
		if first > 0 {
			changePct = (last - first) / first * 100
		}

		maxVal, minVal, sum, peakDate := ts.Points[0].Value, ts.Points[0].Value, 0.0, ts.Points[0].Date
		for _, pt := range ts.Points {
			sum += pt.Value
			if pt.Value > maxVal {
				maxVal, peakDate = pt.Value, pt.Date
			}
			if pt.Value < minVal {
				minVal = pt.Value
			}
		}
		avg := sum / float64(len(ts.Points))
		volatility := 0.0
		if avg > 0 {
			volatility = (maxVal - minVal) / avg * 100
		}

		if strings.Contains(strings.ToLower(ts.SeriesName), "sales") {
			switch {
			case changePct > 10:
				insights = append(insights, fmt.Sprintf("Tendencia alcista (+%.1f%%) en el periodo. Momentum positivo de ventas.", changePct))
			case changePct < -10:
				insights = append(insights, fmt.Sprintf("Tendencia bajista (%.1f%%). Analizar factores de mercado y competencia.", changePct))
			default:
				insights = append(insights, fmt.Sprintf("Ventas estables (variacion %+.1f%%). Mercado en consolidacion.", changePct))
			}
			if volatility > 50 {
				insights = append(insights, fmt.Sprintf("Alta volatilidad detectada. Pico maximo el %s con $%.0f.", peakDate, maxVal))
			}
		}
	}

	for _, top := range payload.TopItems {
		if len(top.Items) < 3 {
			continue
		}
		items := top.Items
		if len(items) > 10 {
			items = items[:10]
		}
		totalValue := 0.0
		for _, it := range items {
			totalValue += it.Value
		}
		top1 := items[0].Value
		top3 := 0.0
		for i := 0; i < 3 && i < len(items); i++ {
			top3 += items[i].Value
		}

		concentration, top3Concentration := 0.0, 0.0
		if totalValue > 0 {
			concentration = top1 / totalValue * 100
			top3Concentration = top3 / totalValue * 100
		}

		star := items[0].Title
		if len(star) > 50 {
			star = star[:50]
		}
		insights = append(insights, fmt.Sprintf("Producto estrella: '%s' lidera con $%.0f.", star, top1))

		switch {
		case concentration > 30:
			insights = append(insights, fmt.Sprintf("Alta concentracion (%.0f%% en #1). Diversificar para reducir riesgo.", concentration))
		case top3Concentration > 60:
			insights = append(insights, fmt.Sprintf("Top 3 concentra %.0f%% de ingresos. Portafolio concentrado.", top3Concentration))
		}

		if len(items) >= 2 && items[1].Value > 0 {
			gap := (items[0].Value - items[1].Value) / items[1].Value * 100
			if gap > 50 {
				insights = append(insights, fmt.Sprintf("Brecha significativa (%.0f%%) entre #1 y #2. Lider claro del mercado.", gap))
			}
		}
	}

	if len(insights) > 0 {
		limit := len(insights)
		if limit > 4 {
			limit = 4
		}
		for _, insight := range insights[:limit] {
			blocks = append(blocks, model.NarrativeBlock{Type: model.NarrativeInsight, Text: insight})
		}

		if sales, ok := payload.Kpis["total_sales"]; ok && sales != 0 && len(payload.TimeSeries) > 0 && len(payload.TimeSeries[0].Points) > 0 {
			first := payload.TimeSeries[0].Points[0].Value
			last := payload.TimeSeries[0].Points[len(payload.TimeSeries[0].Points)-1].Value
			change := 0.0
			if first > 0 {
				change = (last - first) / first * 100
			}
			switch {
			case change < -5:
				blocks = append(blocks, model.NarrativeBlock{Type: model.NarrativeCallout, Text: "Recomendacion: Revisar estrategia de pricing y promociones para revertir tendencia."})
			case change > 15:
				blocks = append(blocks, model.NarrativeBlock{Type: model.NarrativeCallout, Text: "Recomendacion: Aprovechar momentum positivo con campanas de cross-selling."})
			default:
				blocks = append(blocks, model.NarrativeBlock{Type: model.NarrativeCallout, Text: "Recomendacion: Mantener estrategia actual y monitorear metricas clave."})
			}
		}
	}

	if len(blocks) == 0 {
		blocks = append(blocks, model.NarrativeBlock{Type: model.NarrativeSummary, Text: "Datos procesados. Revisa las visualizaciones para detalles."})
	}

	return blocks
}

func comparisonNarrative(comp *model.Comparison) []model.NarrativeBlock {
	blocks := []model.NarrativeBlock{{
		Type: model.NarrativeHeadline,
		Text: fmt.Sprintf("Comparativa: %s vs %s", comp.CurrentPeriod.Label, comp.PreviousPeriod.Label),
	}}

	var insights []string

	if deltaSales, ok := comp.Delta["total_sales"]; ok {
		if pct := comp.DeltaPct["total_sales"]; pct != nil {
			direction := "disminuyeron"
			if deltaSales > 0 {
				direction = "crecieron"
			}
			currSales := comp.CurrentPeriod.Kpis["total_sales"]
			prevSales := comp.PreviousPeriod.Kpis["total_sales"]
			insights = append(insights, fmt.Sprintf(
				"Las ventas %s un %.1f%% ($%.0f vs $%.0f), una diferencia de $%.0f.",
				direction, math.Abs(*pct), currSales, prevSales, math.Abs(deltaSales),
			))

			absPct := math.Abs(*pct)
			switch {
			case absPct > 30 && deltaSales > 0:
				insights = append(insights, "Crecimiento excepcional. Analizar factores de exito para replicar.")
			case absPct > 30:
				insights = append(insights, "Caida significativa. Requiere accion inmediata.")
			case absPct > 10 && deltaSales > 0:
				insights = append(insights, "Buen crecimiento sostenido respecto al periodo anterior.")
			case absPct > 10:
				insights = append(insights, "Caida moderada. Revisar estrategia comercial.")
			}
		}
	}

	if deltaOrders, ok := comp.Delta["total_orders"]; ok {
		if pct := comp.DeltaPct["total_orders"]; pct != nil {
			direction := "disminuyeron"
			if deltaOrders > 0 {
				direction = "aumentaron"
			}
			insights = append(insights, fmt.Sprintf(
				"Las ordenes %s un %.1f%% (%.0f vs %.0f).",
				direction, math.Abs(*pct), comp.CurrentPeriod.Kpis["total_orders"], comp.PreviousPeriod.Kpis["total_orders"],
			))
		}
	}

	if deltaAvg, ok := comp.Delta["avg_order_value"]; ok {
		if pct := comp.DeltaPct["avg_order_value"]; pct != nil && math.Abs(*pct) > 5 {
			direction := "bajo"
			if deltaAvg > 0 {
				direction = "subio"
			}
			insights = append(insights, fmt.Sprintf(
				"El ticket promedio %s un %.1f%% ($%.0f vs $%.0f).",
				direction, math.Abs(*pct), comp.CurrentPeriod.Kpis["avg_order_value"], comp.PreviousPeriod.Kpis["avg_order_value"],
			))
		}
	}

	if deltaUnits, ok := comp.Delta["total_units"]; ok {
		if pct := comp.DeltaPct["total_units"]; pct != nil {
			direction := "disminuyeron"
			if deltaUnits > 0 {
				direction = "aumentaron"
			}
			insights = append(insights, fmt.Sprintf(
				"Las unidades vendidas %s un %.1f%% (%.0f vs %.0f).",
				direction, math.Abs(*pct), comp.CurrentPeriod.Kpis["total_units"], comp.PreviousPeriod.Kpis["total_units"],
			))
		}
	}

	limit := len(insights)
	if limit > 5 {
		limit = 5
	}
	for _, insight := range insights[:limit] {
		blocks = append(blocks, model.NarrativeBlock{Type: model.NarrativeInsight, Text: insight})
	}

	if pct := comp.DeltaPct["total_sales"]; pct != nil {
		switch {
		case *pct < -10:
			blocks = append(blocks, model.NarrativeBlock{Type: model.NarrativeCallout, Text: "Recomendacion: Revisar causas de la caida. Considerar promociones, revision de precios o refuerzo de marketing."})
		case *pct > 20:
			blocks = append(blocks, model.NarrativeBlock{Type: model.NarrativeCallout, Text: "Recomendacion: Capitalizar el momentum positivo. Expandir inventario de productos estrella."})
		default:
			blocks = append(blocks, model.NarrativeBlock{Type: model.NarrativeCallout, Text: "Recomendacion: Rendimiento estable. Enfocarse en optimizacion y eficiencia."})
		}
	}

	return blocks
}

// narrativeOutput is the structured-output shape for LLM-contextual
// narrative generation.
type narrativeOutput struct {
	Conclusion     string   `json:"conclusion" jsonschema:"required"`
	Summary        string   `json:"summary" jsonschema:"required"`
	Insights       []string `json:"insights" jsonschema:"required"`
	Recommendation string   `json:"recommendation"`
}

func (c *Composer) contextualNarrative(ctx context.Context, question string, payload *model.DataPayload, chatContext string) ([]model.NarrativeBlock, string) {
	systemPrompt := "Eres un analista de datos experto para una tienda de e-commerce.\n" +
		"Genera insights personalizados y accionables basados en los datos, mencionando numeros especificos.\n" +
		"La conclusion debe responder directamente a la pregunta del usuario."

	var dataSummary strings.Builder
	if len(payload.Kpis) > 0 {
		dataSummary.WriteString("KPIs: ")
		first := true
		for k, v := range payload.Kpis {
			if !first {
				dataSummary.WriteString(", ")
			}
			fmt.Fprintf(&dataSummary, "%s=%.2f", k, v)
			first = false
		}
		dataSummary.WriteString("\n")
	}
	for _, ts := range payload.TimeSeries {
		fmt.Fprintf(&dataSummary, "Serie %s: %d puntos\n", ts.SeriesName, len(ts.Points))
	}
	for _, top := range payload.TopItems {
		fmt.Fprintf(&dataSummary, "Top %s: %d items\n", top.RankingName, len(top.Items))
	}

	userPrompt := fmt.Sprintf("Pregunta del usuario: %q\n", question)
	if chatContext != "" {
		userPrompt += "Contexto de conversacion anterior:\n" + chatContext + "\n"
	}
	userPrompt += "Datos disponibles:\n" + dataSummary.String()

	cctx, cancel := context.WithTimeout(ctx, llmCallTimeout)
	defer cancel()

	var out narrativeOutput
	_, err := c.llmClient.Chat(cctx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		SchemaName:   "narrative_output",
		Schema:       llm.GenerateSchema[narrativeOutput](),
		MaxTokens:    600,
		Temperature:  llm.Temp(0.7),
	}, &out)
	if err != nil {
		slog.WarnContext(ctx, "composer llm narrative failed, falling back to smart narrative", "error", err)
		return smartNarrative(payload), quickConclusion(payload)
	}

	var blocks []model.NarrativeBlock
	if out.Conclusion != "" {
		blocks = append(blocks, model.NarrativeBlock{Type: model.NarrativeHeadline, Text: out.Conclusion})
	}
	if out.Summary != "" {
		blocks = append(blocks, model.NarrativeBlock{Type: model.NarrativeSummary, Text: out.Summary})
	}
	for _, insight := range out.Insights {
		blocks = append(blocks, model.NarrativeBlock{Type: model.NarrativeInsight, Text: insight})
	}
	if out.Recommendation != "" {
		blocks = append(blocks, model.NarrativeBlock{Type: model.NarrativeCallout, Text: out.Recommendation})
	}

	return blocks, out.Conclusion
}
