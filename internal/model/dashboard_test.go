package model

import (
	"encoding/json"
	"testing"
)

func TestSlotChild_RoundTripsThroughJSON(t *testing.T) {
	children := []SlotChild{
		NewKpiCardSlot(KpiCard{Label: "Ventas Totales", ValueRef: "kpi.total_sales", Format: FormatCurrency}),
		NewChartSlot(Chart{Type: ChartArea, Title: "Tendencia", DatasetRef: "ts.sales_by_day", XAxis: "date", YAxis: "value"}),
		NewTableSlot(TableConfig{Title: "Ordenes", DatasetRef: "table.recent_orders", Columns: []string{"id"}, MaxRows: 10}),
		NewComparisonSlot(ComparisonChart{Title: "Comparativa", Metrics: []string{"total_sales"}}),
	}

	data, err := json.Marshal(children)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got []SlotChild
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got) != len(children) {
		t.Fatalf("got %d children, want %d", len(got), len(children))
	}
	if got[0].Kind != SlotKpiCard || got[0].KpiCard == nil || got[0].KpiCard.ValueRef != "kpi.total_sales" {
		t.Errorf("kpi card did not survive the round trip: %+v", got[0])
	}
	if got[1].Kind != SlotChart || got[1].Chart == nil || got[1].Chart.Type != ChartArea {
		t.Errorf("chart did not survive the round trip: %+v", got[1])
	}
	if got[2].Kind != SlotTable || got[2].Table == nil || got[2].Table.MaxRows != 10 {
		t.Errorf("table did not survive the round trip: %+v", got[2])
	}
	if got[3].Kind != SlotComparisonChart || got[3].ComparisonChart == nil {
		t.Errorf("comparison chart did not survive the round trip: %+v", got[3])
	}
}

func TestSlotChild_WireFormCarriesTypeDiscriminant(t *testing.T) {
	data, err := json.Marshal(NewChartSlot(Chart{Type: ChartBar, Title: "Ranking", DatasetRef: "top.products_by_revenue"}))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if flat["type"] != string(ChartBar) {
		t.Errorf("got type %v, want %q", flat["type"], ChartBar)
	}
	if flat["dataset_ref"] != "top.products_by_revenue" {
		t.Errorf("expected the variant's fields flattened into the object, got %v", flat)
	}
}

func TestRefSet_SerializesAsSortedArray(t *testing.T) {
	p := NewDataPayload()
	p.AddRef("ts.sales_by_day")
	p.AddRef("kpi.total_sales")

	data, err := json.Marshal(p.AvailableRefs)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `["kpi.total_sales","ts.sales_by_day"]` {
		t.Errorf("got %s, want a sorted array", data)
	}

	var back RefSet
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := back["ts.sales_by_day"]; !ok {
		t.Errorf("expected ref restored, got %v", back)
	}
}
