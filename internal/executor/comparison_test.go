package executor

import (
	"context"
	"testing"

	"bisage.dev/gateway/internal/allowlist"
	"bisage.dev/gateway/internal/model"
	"bisage.dev/gateway/internal/relstore"
)

// twoPeriodStore returns the current-period sales on its first call and
// the (lower) previous-period sales on its second, so a test can assert
// on a non-trivial delta.
type twoPeriodStore struct{ calls int }

func (s *twoPeriodStore) Query(_ context.Context, sql string, _ map[string]any) ([]relstore.Row, error) {
	s.calls++
	sales := 100000.0
	if s.calls > 1 {
		sales = 80000.0
	}
	return []relstore.Row{{"total_sales": sales, "total_orders": int64(200), "avg_order_value": sales / 200, "total_units": int64(400)}}, nil
}

func TestExecuteComparison_ComputesDeltaAndDeltaPct(t *testing.T) {
	registry, err := allowlist.New("")
	if err != nil {
		t.Fatalf("allowlist.New: %v", err)
	}

	e := New(registry, &twoPeriodStore{}, 4)
	plan := model.QueryPlan{QueryIDs: []string{"kpi_sales_summary"}}
	rng := model.ComparisonDateRange{
		Current:  model.DateRange{From: "2026-06-01", To: "2026-07-01"},
		Previous: model.DateRange{From: "2026-05-01", To: "2026-06-01"},
	}

	payload, err := e.ExecuteComparison(context.Background(), plan, rng)
	if err != nil {
		t.Fatalf("ExecuteComparison: %v", err)
	}
	if payload.Comparison == nil {
		t.Fatal("expected Comparison to be set")
	}
	if !payload.HasRef(model.ComparisonRef) {
		t.Error("expected comparison ref registered")
	}

	delta := payload.Comparison.Delta["total_sales"]
	if delta != 20000.0 {
		t.Errorf("got delta %v, want 20000", delta)
	}

	pct := payload.Comparison.DeltaPct["total_sales"]
	if pct == nil || *pct != 25.0 {
		t.Errorf("got delta_pct %v, want 25", pct)
	}
}

// zeroThenValueStore returns a zero previous-period value so DeltaPct
// must be nil rather than +Inf.
type zeroThenValueStore struct{ calls int }

func (s *zeroThenValueStore) Query(_ context.Context, _ string, _ map[string]any) ([]relstore.Row, error) {
	s.calls++
	sales := 5000.0
	if s.calls > 1 {
		sales = 0
	}
	return []relstore.Row{{"total_sales": sales, "total_orders": int64(10), "avg_order_value": 0.0, "total_units": int64(20)}}, nil
}

func TestExecuteComparison_ZeroPreviousYieldsNilDeltaPct(t *testing.T) {
	registry, err := allowlist.New("")
	if err != nil {
		t.Fatalf("allowlist.New: %v", err)
	}

	e := New(registry, &zeroThenValueStore{}, 4)
	plan := model.QueryPlan{QueryIDs: []string{"kpi_sales_summary"}}
	rng := model.ComparisonDateRange{
		Current:  model.DateRange{From: "2026-06-01", To: "2026-07-01"},
		Previous: model.DateRange{From: "2026-05-01", To: "2026-06-01"},
	}

	payload, err := e.ExecuteComparison(context.Background(), plan, rng)
	if err != nil {
		t.Fatalf("ExecuteComparison: %v", err)
	}
	if pct := payload.Comparison.DeltaPct["total_sales"]; pct != nil {
		t.Errorf("expected nil delta_pct when previous value is zero, got %v", *pct)
	}
}
