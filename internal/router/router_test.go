package router

import (
	"context"
	"testing"

	"bisage.dev/gateway/internal/model"
)

func TestRoute_Conversational(t *testing.T) {
	r := New(nil, false)
	decision := r.Route(context.Background(), "Hola, buenas tardes")

	if decision.ResponseType != model.ResponseConversational {
		t.Fatalf("got response_type %q, want conversational", decision.ResponseType)
	}
	if decision.DirectResponse == "" {
		t.Errorf("expected a direct response for a greeting")
	}
}

func TestRoute_DashboardKeywords(t *testing.T) {
	r := New(nil, false)
	decision := r.Route(context.Background(), "Mostrame el dashboard de ventas de este mes")

	if decision.ResponseType != model.ResponseDashboard {
		t.Fatalf("got response_type %q, want dashboard", decision.ResponseType)
	}
	if !decision.NeedsSQL || !decision.NeedsDashboard {
		t.Errorf("expected needs_sql and needs_dashboard to be true")
	}
	if decision.Domain != model.DomainSales {
		t.Errorf("got domain %q, want sales", decision.Domain)
	}
}

func TestRoute_DataOnlyWithoutDashboardKeyword(t *testing.T) {
	r := New(nil, false)
	decision := r.Route(context.Background(), "cuanto vendimos en total la semana pasada")

	if decision.ResponseType != model.ResponseDataOnly {
		t.Fatalf("got response_type %q, want data_only", decision.ResponseType)
	}
}

func TestRoute_InventoryDomain(t *testing.T) {
	r := New(nil, false)
	decision := r.Route(context.Background(), "mostrame el inventario y productos con stock bajo")

	if decision.Domain != model.DomainInventory {
		t.Fatalf("got domain %q, want inventory", decision.Domain)
	}
}

func TestRoute_AmbiguousShortQuestion(t *testing.T) {
	r := New(nil, false)
	decision := r.Route(context.Background(), "cuanto?")

	if decision.ResponseType != model.ResponseClarification {
		t.Fatalf("got response_type %q, want clarification", decision.ResponseType)
	}
	if decision.Clarification == nil {
		t.Fatalf("expected clarification data to be set")
	}
}

func TestRoute_ShowWithoutObjectOffersCannedOptions(t *testing.T) {
	r := New(nil, false)
	decision := r.Route(context.Background(), "mostrame")

	if decision.ResponseType != model.ResponseClarification {
		t.Fatalf("got response_type %q, want clarification", decision.ResponseType)
	}
	if decision.Clarification == nil {
		t.Fatal("expected clarification data")
	}
	want := []string{
		"Dashboard de ventas",
		"Estado del inventario",
		"Metricas del agente AI",
		"Ordenes recientes",
	}
	got := decision.Clarification.Options
	if len(got) != len(want) {
		t.Fatalf("got options %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got options %v, want %v", got, want)
		}
	}
}

func TestRoute_ComparisonWithoutPeriodIsAmbiguous(t *testing.T) {
	r := New(nil, false)
	decision := r.Route(context.Background(), "quiero comparar las ventas")

	if decision.ResponseType != model.ResponseClarification {
		t.Fatalf("got response_type %q, want clarification", decision.ResponseType)
	}
}

func TestRoute_ComparisonWithPeriodIsNotAmbiguous(t *testing.T) {
	r := New(nil, false)
	decision := r.Route(context.Background(), "comparar ventas de este mes contra el mes pasado")

	if decision.ResponseType == model.ResponseClarification {
		t.Fatalf("expected a resolved decision, got clarification")
	}
}

func TestRoute_NoKeywordsFallsBackWithoutLLMClient(t *testing.T) {
	r := New(nil, true)
	decision := r.Route(context.Background(), "platicame algo interesante por favor")

	if decision.ResponseType != model.ResponseDashboard {
		t.Fatalf("got response_type %q, want the safe dashboard/sales fallback", decision.ResponseType)
	}
	if decision.Domain != model.DomainSales {
		t.Errorf("got domain %q, want sales", decision.Domain)
	}
}
