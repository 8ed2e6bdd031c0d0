package composer

import (
	"context"
	"testing"

	"bisage.dev/gateway/internal/model"
)

func salesPayload() *model.DataPayload {
	p := model.NewDataPayload()
	p.Kpis["total_sales"] = 150000
	p.Kpis["total_orders"] = 42
	p.Kpis["avg_order_value"] = 3571.4
	p.Kpis["total_units"] = 90
	p.AddRef("kpi.total_sales")
	p.AddRef("kpi.total_orders")
	p.AddRef("kpi.avg_order_value")
	p.AddRef("kpi.total_units")

	p.TimeSeries = []model.TimeSeries{{
		SeriesName: "sales_by_day",
		Points: []model.TimeSeriesPoint{
			{Date: "2024-01-01", Value: 1000},
			{Date: "2024-01-02", Value: 1500},
		},
	}}
	p.AddRef(model.SeriesRef("sales_by_day"))

	p.TopItems = []model.TopItems{{
		RankingName: "products_by_revenue",
		Items: []model.TopItem{
			{Rank: 1, ID: "a", Title: "Producto A", Value: 5000},
			{Rank: 2, ID: "b", Title: "Producto B", Value: 3000},
			{Rank: 3, ID: "c", Title: "Producto C", Value: 1000},
		},
	}}
	p.AddRef(model.TopRef("products_by_revenue"))

	return p
}

func TestCompose_HeuristicProducesTwoChartsAndKPIs(t *testing.T) {
	c := New(nil, false, false)
	spec := c.Compose(context.Background(), "cuanto vendimos este mes", salesPayload(), "")

	if len(spec.Slots.Series) == 0 {
		t.Fatalf("expected KPI cards, got none")
	}
	if len(spec.Slots.Charts) < 2 {
		t.Fatalf("expected at least 2 charts, got %d", len(spec.Slots.Charts))
	}
	if spec.Conclusion == "" {
		t.Errorf("expected a non-empty conclusion")
	}
	if len(spec.Slots.Narrative) == 0 {
		t.Errorf("expected narrative blocks")
	}
}

func TestCompose_DropsUnavailableRefs(t *testing.T) {
	c := New(nil, false, false)
	payload := salesPayload()
	// available_refs never mentions kpi.total_units even though the map has it.
	delete(payload.AvailableRefs, "kpi.total_units")

	spec := c.Compose(context.Background(), "ventas", payload, "")

	for _, kpi := range spec.Slots.Series {
		if kpi.ValueRef == "kpi.total_units" {
			t.Fatalf("expected kpi.total_units to be dropped, but it survived ref validation")
		}
	}
}

func TestCompose_ComparisonModeBuildsComparisonChart(t *testing.T) {
	c := New(nil, false, false)
	payload := salesPayload()
	pct := 25.0
	payload.Comparison = &model.Comparison{
		CurrentPeriod:  model.ComparisonPeriod{Label: "diciembre 2024", Kpis: map[string]float64{"total_sales": 150000}},
		PreviousPeriod: model.ComparisonPeriod{Label: "noviembre 2024", Kpis: map[string]float64{"total_sales": 120000}},
		Delta:          map[string]float64{"total_sales": 30000},
		DeltaPct:       map[string]*float64{"total_sales": &pct},
	}

	spec := c.Compose(context.Background(), "diciembre vs noviembre", payload, "")

	foundComparison := false
	for _, child := range spec.Slots.Charts {
		if child.Kind == model.SlotComparisonChart {
			foundComparison = true
		}
	}
	if !foundComparison {
		t.Fatalf("expected a comparison chart slot, got %+v", spec.Slots.Charts)
	}
}

func TestComposeMinimal_SummaryOnlyNarrative(t *testing.T) {
	c := New(nil, false, false)
	spec := c.ComposeMinimal("cuanto vendimos este mes", salesPayload())

	if len(spec.Slots.Narrative) != 1 || spec.Slots.Narrative[0].Type != model.NarrativeSummary {
		t.Fatalf("expected a single summary block, got %+v", spec.Slots.Narrative)
	}
	if spec.Conclusion == "" {
		t.Error("expected a conclusion")
	}
	if len(spec.Slots.Series) == 0 {
		t.Error("expected KPI cards from the payload refs")
	}
}

func TestCompose_NoDataFallsBackToSummaryNarrative(t *testing.T) {
	c := New(nil, false, false)
	payload := model.NewDataPayload()

	spec := c.Compose(context.Background(), "algo", payload, "")

	if len(spec.Slots.Narrative) != 1 || spec.Slots.Narrative[0].Type != model.NarrativeSummary {
		t.Fatalf("expected a single fallback summary block, got %+v", spec.Slots.Narrative)
	}
}
