package planner

import (
	"context"
	"encoding/json"
	"testing"

	"bisage.dev/gateway/common/llm"
	"bisage.dev/gateway/internal/allowlist"
	"bisage.dev/gateway/internal/model"
)

func newRegistry(t *testing.T) *allowlist.Registry {
	t.Helper()
	reg, err := allowlist.New("")
	if err != nil {
		t.Fatalf("allowlist.New: %v", err)
	}
	return reg
}

func TestDecide_InventoryBeforeSales(t *testing.T) {
	p := New(newRegistry(t), nil, false)
	plan := p.Decide(context.Background(), "como esta el inventario de productos en venta", "")

	if plan.QueryIDs[0] != "kpi_inventory_summary" {
		t.Fatalf("got %v, want inventory templates to win over the sales branch", plan.QueryIDs)
	}
}

func TestDecide_LowStockUsesAlertBranch(t *testing.T) {
	p := New(newRegistry(t), nil, false)
	plan := p.Decide(context.Background(), "que productos tienen stock bajo o critico", "")

	want := []string{"kpi_inventory_summary", "products_low_stock", "stock_reorder_analysis"}
	assertIDs(t, plan.QueryIDs, want)
}

func TestDecide_MonthSpecificKeyword(t *testing.T) {
	p := New(newRegistry(t), nil, false)
	plan := p.Decide(context.Background(), "cuanto facturamos en diciembre", "")

	want := []string{"kpi_sales_summary", "sales_by_month", "top_products_by_revenue"}
	assertIDs(t, plan.QueryIDs, want)
}

func TestDecide_SalesKeyword(t *testing.T) {
	p := New(newRegistry(t), nil, false)
	plan := p.Decide(context.Background(), "cuanto facturamos en total", "")

	want := []string{"kpi_sales_summary", "ts_sales_by_day", "top_products_by_revenue"}
	assertIDs(t, plan.QueryIDs, want)
}

func TestDecide_PlanNeverExceedsMaxLength(t *testing.T) {
	p := New(newRegistry(t), nil, false)
	plan := p.Decide(context.Background(), "debo comprar mas stock de este producto", "")

	if len(plan.QueryIDs) > model.MaxPlanLength {
		t.Fatalf("plan has %d ids, want at most %d", len(plan.QueryIDs), model.MaxPlanLength)
	}
}

func TestDecide_GenericProductKeyword(t *testing.T) {
	p := New(newRegistry(t), nil, false)
	plan := p.Decide(context.Background(), "cuentame sobre los productos", "")

	want := []string{"kpi_inventory_summary", "products_inventory", "top_products_by_sales"}
	assertIDs(t, plan.QueryIDs, want)
}

func TestDecide_PreventaKeyword(t *testing.T) {
	p := New(newRegistry(t), nil, false)
	plan := p.Decide(context.Background(), "que consultas de preventa tenemos", "")

	want := []string{"preventa_summary", "recent_preventa_queries"}
	assertIDs(t, plan.QueryIDs, want)
}

func TestDecide_AgentKeywordWithoutEscalation(t *testing.T) {
	p := New(newRegistry(t), nil, false)
	plan := p.Decide(context.Background(), "como va el agente ai", "")

	want := []string{"ai_interactions_summary", "recent_ai_interactions"}
	assertIDs(t, plan.QueryIDs, want)
}

func TestDecide_AgentKeywordWithEscalation(t *testing.T) {
	p := New(newRegistry(t), nil, false)
	plan := p.Decide(context.Background(), "como va el agente ai con los casos escalados", "")

	want := []string{"ai_interactions_summary", "recent_ai_interactions", "escalated_cases"}
	assertIDs(t, plan.QueryIDs, want)
}

func TestDecide_DefaultFallback(t *testing.T) {
	p := New(newRegistry(t), nil, false)
	plan := p.Decide(context.Background(), "hola que tal", "")

	want := []string{"kpi_sales_summary", "ts_sales_by_day", "top_products_by_revenue"}
	assertIDs(t, plan.QueryIDs, want)
}

type stubLLMClient struct {
	plan llmPlan
}

func (s *stubLLMClient) Chat(ctx context.Context, req llm.Request, result any) (*llm.Response, error) {
	raw, err := json.Marshal(s.plan)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, err
	}
	return &llm.Response{}, nil
}

func (s *stubLLMClient) Model() string { return "stub" }

func TestDecide_AmbiguousReferenceUsesLLM(t *testing.T) {
	stub := &stubLLMClient{plan: llmPlan{
		QueryIDs:  []string{"kpi_inventory_summary", "stock_alerts"},
		Reasoning: "el usuario pregunta por lo mismo que antes, que era inventario",
	}}
	p := New(newRegistry(t), stub, true)
	plan := p.Decide(context.Background(), "y de eso, mostrame mas", "Antes preguntaste por el inventario.")

	assertIDs(t, plan.QueryIDs, []string{"kpi_inventory_summary", "stock_alerts"})
}

func assertIDs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
