package executor

import (
	"context"
	"fmt"

	"bisage.dev/gateway/internal/model"
)

// ExecuteComparison runs plan twice, once per side of rng, and folds the
// two KPI sets into a model.Comparison. The Executor
// simply runs the current period's payload as the base result and
// layers the comparison on top, so a comparison request still returns
// the same KPIs/charts/tables a plain request would.
func (e *Executor) ExecuteComparison(ctx context.Context, plan model.QueryPlan, rng model.ComparisonDateRange) (*model.DataPayload, error) {
	payload, currErr := e.Execute(ctx, plan, rng.Current.From, rng.Current.To)
	if currErr != nil && payload == nil {
		return nil, currErr
	}

	prevPayload, prevErr := e.Execute(ctx, plan, rng.Previous.From, rng.Previous.To)
	if prevErr != nil && prevPayload == nil {
		// Current period data still stands on its own; comparison is
		// best-effort.
		return payload, currErr
	}

	payload.Comparison = buildComparison(rng, payload.Kpis, prevPayload.Kpis)
	payload.AddRef(model.ComparisonRef)

	return payload, currErr
}

func buildComparison(rng model.ComparisonDateRange, current, previous map[string]float64) *model.Comparison {
	delta := make(map[string]float64, len(current))
	deltaPct := make(map[string]*float64, len(current))

	for k, cv := range current {
		pv := previous[k]
		delta[k] = cv - pv
		if pv == 0 {
			deltaPct[k] = nil
			continue
		}
		pct := (cv - pv) / pv * 100
		deltaPct[k] = &pct
	}

	return &model.Comparison{
		CurrentPeriod: model.ComparisonPeriod{
			Label:    periodLabel(rng.Current),
			DateFrom: rng.Current.From,
			DateTo:   rng.Current.To,
			Kpis:     current,
		},
		PreviousPeriod: model.ComparisonPeriod{
			Label:    periodLabel(rng.Previous),
			DateFrom: rng.Previous.From,
			DateTo:   rng.Previous.To,
			Kpis:     previous,
		},
		Delta:    delta,
		DeltaPct: deltaPct,
	}
}

func periodLabel(r model.DateRange) string {
	if r.Label != "" {
		return r.Label
	}
	return fmt.Sprintf("%s – %s", r.From, r.To)
}
