package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bisage.dev/gateway/internal/allowlist"
	"bisage.dev/gateway/internal/model"
	"bisage.dev/gateway/internal/relstore"
)

func TestExecute_KpiAndTimeSeries(t *testing.T) {
	registry, err := allowlist.New("")
	require.NoError(t, err)

	e := New(registry, relstore.NewFake(), 4)
	plan := model.QueryPlan{QueryIDs: []string{"kpi_sales_summary", "ts_sales_by_day"}}

	payload, err := e.Execute(context.Background(), plan, "2026-06-01", "2026-07-01")
	require.NoError(t, err)

	assert.Contains(t, payload.Kpis, "total_sales")
	assert.True(t, payload.HasRef(model.KpiRef("total_sales")), "expected kpi.total_sales ref registered")
	require.Len(t, payload.TimeSeries, 1)
	assert.True(t, payload.HasRef(model.SeriesRef("sales_by_day")),
		"expected ts.sales_by_day ref registered, got %v", payload.AvailableRefsList())
	assert.Len(t, payload.DatasetsMeta, 2)
}

func TestExecute_InvalidQueryIDDoesNotFailWholePlan(t *testing.T) {
	registry, err := allowlist.New("")
	require.NoError(t, err)

	e := New(registry, relstore.NewFake(), 4)
	plan := model.QueryPlan{QueryIDs: []string{"kpi_sales_summary", "not_a_real_id"}}

	payload, err := e.Execute(context.Background(), plan, "", "")
	require.NoError(t, err, "Execute should tolerate a single bad id")
	require.Len(t, payload.DatasetsMeta, 2)

	var sawError bool
	for _, m := range payload.DatasetsMeta {
		if m.QueryID == "not_a_real_id" && m.Error != "" {
			sawError = true
		}
	}
	assert.True(t, sawError, "expected dataset meta to record the invalid-id error")
}

func TestExecute_AllQueriesFailReturnsError(t *testing.T) {
	registry, err := allowlist.New("")
	require.NoError(t, err)

	e := New(registry, relstore.NewFake(), 4)
	plan := model.QueryPlan{QueryIDs: []string{"not_real_1", "not_real_2"}}

	_, err = e.Execute(context.Background(), plan, "", "")
	require.ErrorIs(t, err, ErrAllQueriesFailed)
}

func TestExecute_TableAndTopItemRefsArePrefixed(t *testing.T) {
	registry, err := allowlist.New("")
	require.NoError(t, err)

	e := New(registry, relstore.NewFake(), 4)
	plan := model.QueryPlan{QueryIDs: []string{"recent_orders", "top_products_by_revenue"}}

	payload, err := e.Execute(context.Background(), plan, "", "")
	require.NoError(t, err)

	assert.True(t, payload.HasRef(model.TableRef("recent_orders")),
		"expected table.recent_orders, got %v", payload.AvailableRefsList())
	assert.True(t, payload.HasRef(model.TopRef("products_by_revenue")),
		"expected top.products_by_revenue, got %v", payload.AvailableRefsList())
}
