// Package composer implements the Presentation Composer: it turns a
// DataPayload into a DashboardSpec (fixed KPI/chart/table/narrative
// slots) plus a one-line conclusion answering the user's question.
//
// The conclusion is always returned as a value from Compose, never
// stored as mutable state on the Composer itself.
package composer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bisage.dev/gateway/common/llm"
	"bisage.dev/gateway/internal/model"
)

// Composer builds dashboard specs from executed query payloads.
type Composer struct {
	llmClient llm.Client
	useLLM    bool
	demoMode  bool
}

// New returns a Composer. demoMode forces the heuristic narrative path
// regardless of useLLM.
func New(llmClient llm.Client, useLLM, demoMode bool) *Composer {
	return &Composer{llmClient: llmClient, useLLM: useLLM, demoMode: demoMode}
}

type kpiMapping struct {
	label  string
	ref    string
	format model.Format
}

// allKPIs lists every KPI card our catalogue's query outputs can fill;
// unavailable refs are dropped during validateRefs, so listing them all
// here costs nothing and keeps the mapping exhaustive.
var allKPIs = []kpiMapping{
	{"Ventas Totales", "kpi.total_sales", model.FormatCurrency},
	{"Ordenes", "kpi.total_orders", model.FormatNumber},
	{"Ticket Promedio", "kpi.avg_order_value", model.FormatCurrency},
	{"Unidades", "kpi.total_units", model.FormatNumber},
	{"Total Interacciones", "kpi.total_interactions", model.FormatNumber},
	{"Casos Escalados", "kpi.escalated_count", model.FormatNumber},
	{"Tasa Escalamiento", "kpi.escalation_rate", model.FormatPercent},
	{"Auto-Respondidas", "kpi.auto_responded", model.FormatNumber},
	// Inventory KPIs: kpi_inventory_summary carries the severity breakdown.
	{"Stock Critico", "kpi.critical_count", model.FormatNumber},
	{"Stock en Advertencia", "kpi.warning_count", model.FormatNumber},
	{"Productos OK", "kpi.ok_count", model.FormatNumber},
	{"Total de Productos", "kpi.total_products", model.FormatNumber},
}

var comparisonKPIs = []kpiMapping{
	{"Ventas", "kpi.total_sales", model.FormatCurrency},
	{"Ordenes", "kpi.total_orders", model.FormatNumber},
	{"Ticket Promedio", "kpi.avg_order_value", model.FormatCurrency},
	{"Unidades", "kpi.total_units", model.FormatNumber},
}

// Compose builds the final DashboardSpec for question given payload and
// optional chat context, running the heuristic structure pass, the
// narrative pass (heuristic or LLM-contextual), ref validation, and the
// two-chart-minimum pass in that order.
func (c *Composer) Compose(ctx context.Context, question string, payload *model.DataPayload, chatContext string) model.DashboardSpec {
	spec := c.buildSpecHeuristic(question, payload)

	narrative, conclusion := c.generateNarrative(ctx, question, payload, chatContext)
	spec.Slots.Narrative = narrative

	spec = validateRefs(spec, payload)
	spec = ensureTwoCharts(spec, payload)

	if conclusion == "" {
		conclusion = quickConclusion(payload)
	}
	spec.Conclusion = conclusion

	return spec
}

// ComposeMinimal builds the reduced spec for data-only requests: KPI
// cards and implicit charts from whatever refs the payload carries,
// with a single summary line instead of the full narrative.
func (c *Composer) ComposeMinimal(question string, payload *model.DataPayload) model.DashboardSpec {
	spec := c.buildSpecHeuristic(question, payload)
	spec = validateRefs(spec, payload)
	spec = ensureTwoCharts(spec, payload)

	conclusion := quickConclusion(payload)
	spec.Slots.Narrative = []model.NarrativeBlock{{Type: model.NarrativeSummary, Text: conclusion}}
	spec.Conclusion = conclusion
	return spec
}

func (c *Composer) buildSpecHeuristic(question string, payload *model.DataPayload) model.DashboardSpec {
	var slots model.DashboardSlots

	if payload.Comparison != nil {
		return c.buildComparisonSpec(payload, slots)
	}

	for _, k := range allKPIs {
		if payload.HasRef(k.ref) {
			slots.Series = append(slots.Series, model.KpiCard{Label: k.label, ValueRef: k.ref, Format: k.format})
		}
	}

	for _, ts := range payload.TimeSeries {
		ref := model.SeriesRef(ts.SeriesName)
		if !payload.HasRef(ref) {
			continue
		}
		chartType := model.ChartLine
		if strings.Contains(strings.ToLower(ts.SeriesName), "revenue") {
			chartType = model.ChartArea
		}
		slots.Charts = append(slots.Charts, model.NewChartSlot(model.Chart{
			Type: chartType, Title: "Tendencia: " + formatTitle(ts.SeriesName),
			DatasetRef: ref, XAxis: "date", YAxis: "value",
		}))
	}

	for _, top := range payload.TopItems {
		ref := model.TopRef(top.RankingName)
		if !payload.HasRef(ref) {
			continue
		}
		slots.Charts = append(slots.Charts, model.NewChartSlot(model.Chart{
			Type: model.ChartBar, Title: formatTitle(top.RankingName),
			DatasetRef: ref, XAxis: "title", YAxis: "value",
		}))
	}

	for _, table := range payload.Tables {
		ref := model.TableRef(table.Name)
		if !payload.HasRef(ref) {
			continue
		}
		columns := tableColumns(table)
		slots.Charts = append(slots.Charts, model.NewTableSlot(model.TableConfig{
			Title: "Datos Detallados: " + formatTitle(table.Name), DatasetRef: ref,
			Columns: columns, MaxRows: 10,
		}))
	}

	return model.DashboardSpec{
		Title:       generateTitle(question),
		Subtitle:    "Generado: " + time.Now().Format("02/01/2006 15:04"),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Slots:       slots,
	}
}

func (c *Composer) buildComparisonSpec(payload *model.DataPayload, slots model.DashboardSlots) model.DashboardSpec {
	comp := payload.Comparison

	var metrics []string
	for _, key := range []string{"total_sales", "total_orders", "avg_order_value", "total_units"} {
		if _, ok := comp.Delta[key]; ok {
			metrics = append(metrics, key)
		}
	}

	title := fmt.Sprintf("Comparativa: %s vs %s", comp.CurrentPeriod.Label, comp.PreviousPeriod.Label)

	if len(metrics) > 0 {
		slots.Charts = append(slots.Charts, model.NewComparisonSlot(model.ComparisonChart{
			Title: title, Metrics: metrics,
		}))
	}

	for _, k := range comparisonKPIs {
		if !payload.HasRef(k.ref) {
			continue
		}
		metricKey := strings.TrimPrefix(k.ref, "kpi.")
		var deltaRef *string
		if pct, ok := comp.DeltaPct[metricKey]; ok && pct != nil {
			ref := "comparison.delta_" + metricKey + "_pct"
			deltaRef = &ref
		}
		slots.Series = append(slots.Series, model.KpiCard{Label: k.label, ValueRef: k.ref, Format: k.format, DeltaRef: deltaRef})
	}

	for _, ts := range payload.TimeSeries {
		ref := model.SeriesRef(ts.SeriesName)
		if !payload.HasRef(ref) {
			continue
		}
		slots.Charts = append(slots.Charts, model.NewChartSlot(model.Chart{
			Type: model.ChartLine, Title: "Tendencia: " + formatTitle(ts.SeriesName),
			DatasetRef: ref, XAxis: "date", YAxis: "value",
		}))
	}

	for _, top := range payload.TopItems {
		ref := model.TopRef(top.RankingName)
		if !payload.HasRef(ref) {
			continue
		}
		slots.Charts = append(slots.Charts, model.NewChartSlot(model.Chart{
			Type: model.ChartBar, Title: formatTitle(top.RankingName),
			DatasetRef: ref, XAxis: "title", YAxis: "value",
		}))
	}

	return model.DashboardSpec{
		Title:       title,
		Subtitle:    "Generado: " + time.Now().Format("02/01/2006 15:04"),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Slots:       slots,
	}
}

func tableColumns(table model.Table) []string {
	if len(table.Rows) == 0 {
		return nil
	}
	columns := make([]string, 0, len(table.Rows[0]))
	for col := range table.Rows[0] {
		columns = append(columns, col)
		if len(columns) == 5 {
			break
		}
	}
	return columns
}

func formatTitle(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, ".", " ")
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func generateTitle(question string) string {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "venta"):
		return "Dashboard de Ventas"
	case strings.Contains(q, "producto"):
		return "Analisis de Productos"
	case strings.Contains(q, "orden"), strings.Contains(q, "pedido"):
		return "Resumen de Ordenes"
	default:
		return "Dashboard de Insights"
	}
}

// validateRefs drops any KPI card or chart whose ref doesn't resolve
// against payload, so the client never renders a dangling reference. A
// comparison chart carries no dataset ref and is kept while the payload
// carries a comparison.
func validateRefs(spec model.DashboardSpec, payload *model.DataPayload) model.DashboardSpec {
	validSeries := spec.Slots.Series[:0:0]
	for _, kpi := range spec.Slots.Series {
		if payload.HasRef(kpi.ValueRef) {
			validSeries = append(validSeries, kpi)
		}
	}
	spec.Slots.Series = validSeries

	validCharts := spec.Slots.Charts[:0:0]
	for _, child := range spec.Slots.Charts {
		if child.Kind == model.SlotComparisonChart {
			if payload.Comparison != nil {
				validCharts = append(validCharts, child)
			}
			continue
		}
		ref := datasetRef(child)
		if ref == "" {
			continue
		}
		prefix := strings.SplitN(ref, ".", 2)[0] + "."
		if payload.HasRef(ref) || hasRefWithPrefix(payload, prefix) {
			validCharts = append(validCharts, child)
		}
	}
	spec.Slots.Charts = validCharts

	return spec
}

func datasetRef(child model.SlotChild) string {
	switch child.Kind {
	case model.SlotChart:
		return child.Chart.DatasetRef
	case model.SlotTable:
		return child.Table.DatasetRef
	default:
		return ""
	}
}

func hasRefWithPrefix(payload *model.DataPayload, prefix string) bool {
	for ref := range payload.AvailableRefs {
		if strings.HasPrefix(ref, prefix) {
			return true
		}
	}
	return false
}

// ensureTwoCharts adds a complementary line/bar chart when the spec has
// fewer than two chart types, so the client never renders a lone widget.
func ensureTwoCharts(spec model.DashboardSpec, payload *model.DataPayload) model.DashboardSpec {
	types := map[model.ChartType]bool{}
	nonTable := 0
	for _, child := range spec.Slots.Charts {
		if child.Kind == model.SlotChart {
			types[child.Chart.Type] = true
			nonTable++
		}
	}
	if len(types) >= 2 && nonTable >= 2 {
		return spec
	}

	hasLine := types[model.ChartLine] || types[model.ChartArea]
	hasBar := types[model.ChartBar]

	if !hasLine && len(payload.TimeSeries) > 0 {
		ts := payload.TimeSeries[0]
		chart := model.NewChartSlot(model.Chart{
			Type: model.ChartArea, Title: "Tendencia: " + formatTitle(ts.SeriesName),
			DatasetRef: model.SeriesRef(ts.SeriesName), XAxis: "date", YAxis: "value",
		})
		spec.Slots.Charts = append([]model.SlotChild{chart}, spec.Slots.Charts...)
	}

	if !hasBar && len(payload.TopItems) > 0 {
		top := payload.TopItems[0]
		spec.Slots.Charts = append(spec.Slots.Charts, model.NewChartSlot(model.Chart{
			Type: model.ChartBar, Title: "Ranking: " + formatTitle(top.RankingName),
			DatasetRef: model.TopRef(top.RankingName), XAxis: "title", YAxis: "value",
		}))
	}

	return spec
}

func quickConclusion(payload *model.DataPayload) string {
	if sales, ok := payload.Kpis["total_sales"]; ok {
		orders := payload.Kpis["total_orders"]
		return fmt.Sprintf("Ventas totales: $%.0f con %.0f ordenes", sales, orders)
	}
	if interactions, ok := payload.Kpis["total_interactions"]; ok {
		return fmt.Sprintf("El agente AI proceso %.0f interacciones", interactions)
	}
	return "Datos procesados correctamente"
}
