package relstore

import (
	"context"
	"testing"
)

func TestFakeStore_MatchesKnownShapes(t *testing.T) {
	f := NewFake()
	ctx := context.Background()

	rows, err := f.Query(ctx, "SELECT COALESCE(SUM(total_amount),0) AS total_sales, COUNT(*) AS total_orders FROM ml_orders", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 kpi row, got %d", len(rows))
	}
	if _, ok := rows[0]["total_sales"]; !ok {
		t.Errorf("expected total_sales key in fabricated row")
	}
}

func TestFakeStore_UnknownShapeReturnsEmpty(t *testing.T) {
	f := NewFake()
	rows, err := f.Query(context.Background(), "SELECT 1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows for unrecognized shape, got %d", len(rows))
	}
}
