package executor

import (
	"fmt"
	"strconv"
	"strings"

	"bisage.dev/gateway/internal/allowlist"
	"bisage.dev/gateway/internal/model"
	"bisage.dev/gateway/internal/relstore"
)

// project folds one template's rows into payload according to its
// OutputType. KPI queries merge into the shared Kpis map; every other
// output type appends a new named entry.
func project(payload *model.DataPayload, tmpl allowlist.Template, rows []relstore.Row) {
	if len(rows) == 0 {
		return
	}

	switch tmpl.OutputType {
	case allowlist.OutputKPI:
		for k, v := range rows[0] {
			payload.Kpis[k] = asFloat(v)
			payload.AddRef(model.KpiRef(k))
		}

	case allowlist.OutputTimeSeries:
		name := refSuffix(tmpl.OutputRef, tmpl.ID)
		points := make([]model.TimeSeriesPoint, 0, len(rows))
		for _, row := range rows {
			points = append(points, model.TimeSeriesPoint{
				Date:  asString(row["date"]),
				Value: asFloat(row["value"]),
			})
		}
		payload.TimeSeries = append(payload.TimeSeries, model.TimeSeries{SeriesName: name, Points: points})
		payload.AddRef(model.SeriesRef(name))

	case allowlist.OutputTopItems:
		name := refSuffix(tmpl.OutputRef, tmpl.ID)
		items := make([]model.TopItem, 0, len(rows))
		for i, row := range rows {
			rank := i + 1
			if r, ok := row["rank"]; ok {
				rank = int(asFloat(r))
			}
			item := model.TopItem{
				Rank:  rank,
				ID:    asString(row["id"]),
				Title: asString(row["title"]),
				Value: asFloat(row["value"]),
			}
			if u, ok := row["units_sold"]; ok {
				item.Extra = map[string]any{"units_sold": u}
			}
			items = append(items, item)
		}
		payload.TopItems = append(payload.TopItems, model.TopItems{RankingName: name, Items: items})
		payload.AddRef(model.TopRef(name))

	case allowlist.OutputTable:
		name := tableName(tmpl.OutputRef, tmpl.ID)
		tableRows := make([]map[string]any, len(rows))
		for i, row := range rows {
			tableRows[i] = map[string]any(row)
		}
		payload.Tables = append(payload.Tables, model.Table{Name: name, Rows: tableRows})
		payload.AddRef(model.TableRef(name))
	}
}

func refSuffix(ref, fallbackID string) string {
	if ref == "" {
		return fallbackID
	}
	if idx := strings.LastIndex(ref, "."); idx >= 0 {
		return ref[idx+1:]
	}
	return ref
}

func tableName(ref, fallbackID string) string {
	if strings.HasPrefix(ref, "table.") {
		return strings.TrimPrefix(ref, "table.")
	}
	if ref != "" {
		return ref
	}
	return fallbackID
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	case int:
		return float64(n)
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	default:
		return 0
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}
