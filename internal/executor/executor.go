// Package executor runs a QueryPlan against the relational store and
// projects the rows into a DataPayload, tolerating per-query failures.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bisage.dev/gateway/common/logger"
	"bisage.dev/gateway/internal/allowlist"
	"bisage.dev/gateway/internal/model"
	"bisage.dev/gateway/internal/relstore"
	"golang.org/x/sync/errgroup"
)

// ErrAllQueriesFailed is returned when every query in a plan failed; the
// plan as a whole yields no usable data.
var ErrAllQueriesFailed = errors.New("executor: all queries in plan failed")

// Executor runs allowlisted query plans with bounded fan-out.
type Executor struct {
	registry  *allowlist.Registry
	store     relstore.Store
	fanOutCap int
}

// New returns an Executor. fanOutCap <= 0 defaults to 4.
func New(registry *allowlist.Registry, store relstore.Store, fanOutCap int) *Executor {
	if fanOutCap <= 0 {
		fanOutCap = 4
	}
	return &Executor{registry: registry, store: store, fanOutCap: fanOutCap}
}

type queryResult struct {
	queryID string
	tmpl    allowlist.Template
	rows    []relstore.Row
	meta    model.DatasetMeta
	err     error
}

// Execute runs every query id in plan concurrently (bounded by fanOutCap),
// merges per-query dataset metadata regardless of outcome, and returns
// ErrAllQueriesFailed only when every query in the plan failed (a query
// that returns zero rows still counts as a success).
func (e *Executor) Execute(ctx context.Context, plan model.QueryPlan, dateFrom, dateTo string) (*model.DataPayload, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "gateway.executor"})

	base := make(map[string]any, len(plan.Params)+2)
	for k, v := range plan.Params {
		base[k] = v
	}
	if dateFrom != "" {
		base["date_from"] = dateFrom
	}
	if dateTo != "" {
		base["date_to"] = dateTo
	}

	results := make([]queryResult, len(plan.QueryIDs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.fanOutCap)

	for i, id := range plan.QueryIDs {
		i, id := i, id
		g.Go(func() error {
			results[i] = e.runOne(gCtx, id, base)
			return nil // per-query failures are captured, not propagated
		})
	}
	_ = g.Wait() // never returns an error: runOne never returns one to g.Go

	payload := model.NewDataPayload()
	successes := 0

	for _, r := range results {
		payload.DatasetsMeta = append(payload.DatasetsMeta, r.meta)
		if r.err != nil {
			slog.WarnContext(ctx, "query failed, continuing with remaining plan",
				"query_id", r.queryID, "error", r.err)
			continue
		}
		successes++
		project(payload, r.tmpl, r.rows)
	}

	if len(plan.QueryIDs) > 0 && successes == 0 {
		return payload, ErrAllQueriesFailed
	}
	return payload, nil
}

func (e *Executor) runOne(ctx context.Context, id string, params map[string]any) queryResult {
	start := time.Now()
	res := queryResult{queryID: id}

	tmpl, ok := e.registry.Get(id)
	if !ok {
		res.err = fmt.Errorf("%w: %s", allowlist.ErrInvalidQuery, id)
		res.meta = model.DatasetMeta{QueryID: id, ExecutedAt: start.UTC().Format(time.RFC3339), Error: res.err.Error()}
		return res
	}
	res.tmpl = tmpl

	built, err := e.registry.BuildParams(id, params)
	if err != nil {
		res.err = err
		res.meta = model.DatasetMeta{QueryID: id, ExecutedAt: start.UTC().Format(time.RFC3339), Error: err.Error()}
		return res
	}

	rows, err := e.store.Query(ctx, tmpl.SQL, built)
	elapsed := time.Since(start)
	if err != nil {
		res.err = fmt.Errorf("executor: query %s: %w", id, err)
		res.meta = model.DatasetMeta{
			QueryID:         id,
			ExecutionTimeMs: elapsed.Milliseconds(),
			ExecutedAt:      start.UTC().Format(time.RFC3339),
			Error:           res.err.Error(),
		}
		return res
	}

	res.rows = rows
	res.meta = model.DatasetMeta{
		QueryID:         id,
		RowCount:        len(rows),
		ExecutionTimeMs: elapsed.Milliseconds(),
		ExecutedAt:      start.UTC().Format(time.RFC3339),
	}
	return res
}
