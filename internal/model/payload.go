package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// DatasetMeta records provenance for one executed allowlist query.
type DatasetMeta struct {
	QueryID         string `json:"query_id"`
	RowCount        int    `json:"row_count"`
	ExecutionTimeMs int64  `json:"execution_time_ms"`
	ExecutedAt      string `json:"executed_at"`
	Error           string `json:"error,omitempty"`
}

// TimeSeries is one named sequence of dated points.
type TimeSeries struct {
	SeriesName string            `json:"series_name"`
	Points     []TimeSeriesPoint `json:"points"`
}

type TimeSeriesPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// TopItems is one named ranking.
type TopItems struct {
	RankingName string    `json:"ranking_name"`
	Items       []TopItem `json:"items"`
}

type TopItem struct {
	Rank  int            `json:"rank"`
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Value float64        `json:"value"`
	Extra map[string]any `json:"extra,omitempty"`
}

// Table is one named set of raw rows.
type Table struct {
	Name string           `json:"name"`
	Rows []map[string]any `json:"rows"`
}

// ComparisonPeriod is one side of a two-period comparison.
type ComparisonPeriod struct {
	Label    string             `json:"label"`
	DateFrom string             `json:"date_from"`
	DateTo   string             `json:"date_to"`
	Kpis     map[string]float64 `json:"kpis"`
}

// Comparison folds two period payloads into deltas keyed by metric name.
// DeltaPct uses `nil` (not Inf/NaN) when the previous value is zero.
type Comparison struct {
	CurrentPeriod  ComparisonPeriod    `json:"current_period"`
	PreviousPeriod ComparisonPeriod    `json:"previous_period"`
	Delta          map[string]float64  `json:"delta"`
	DeltaPct       map[string]*float64 `json:"delta_pct"`
}

// RefSet is a set of reference strings, serialized as a sorted JSON
// array so the wire shape matches "set of text" and payloads survive a
// marshal/unmarshal round trip through the cache intact.
type RefSet map[string]struct{}

func (s RefSet) MarshalJSON() ([]byte, error) {
	refs := make([]string, 0, len(s))
	for ref := range s {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return json.Marshal(refs)
}

func (s *RefSet) UnmarshalJSON(data []byte) error {
	var refs []string
	if err := json.Unmarshal(data, &refs); err != nil {
		return err
	}
	*s = make(RefSet, len(refs))
	for _, ref := range refs {
		(*s)[ref] = struct{}{}
	}
	return nil
}

// DataPayload is the normalized union of results produced by executing
// one QueryPlan. Every reference string that appears in AvailableRefs
// must denote data actually present in the payload, and vice versa.
type DataPayload struct {
	Kpis          map[string]float64 `json:"kpis,omitempty"`
	TimeSeries    []TimeSeries       `json:"time_series,omitempty"`
	TopItems      []TopItems         `json:"top_items,omitempty"`
	Tables        []Table            `json:"tables,omitempty"`
	Comparison    *Comparison        `json:"comparison,omitempty"`
	DatasetsMeta  []DatasetMeta      `json:"datasets_meta"`
	AvailableRefs RefSet             `json:"available_refs"`
}

// NewDataPayload returns an empty, ready-to-fill payload.
func NewDataPayload() *DataPayload {
	return &DataPayload{
		Kpis:          map[string]float64{},
		DatasetsMeta:  []DatasetMeta{},
		AvailableRefs: RefSet{},
	}
}

// AddRef records a reference string as resolvable.
func (p *DataPayload) AddRef(ref string) {
	if p.AvailableRefs == nil {
		p.AvailableRefs = RefSet{}
	}
	p.AvailableRefs[ref] = struct{}{}
}

// HasRef reports whether ref is present in AvailableRefs, by exact match.
func (p *DataPayload) HasRef(ref string) bool {
	_, ok := p.AvailableRefs[ref]
	return ok
}

// KpiRef builds the `kpi.<field>` reference string for a KPI field.
func KpiRef(field string) string { return fmt.Sprintf("kpi.%s", field) }

// SeriesRef builds the `ts.<name>` reference string for a time series.
func SeriesRef(name string) string { return fmt.Sprintf("ts.%s", name) }

// TopRef builds the `top.<name>` reference string for a ranking.
func TopRef(name string) string { return fmt.Sprintf("top.%s", name) }

// TableRef builds the `table.<name>` reference string for a table.
func TableRef(name string) string { return fmt.Sprintf("table.%s", name) }

// ComparisonRef is the fixed reference string for comparison data.
const ComparisonRef = "comparison"

// AvailableRefsList returns the available refs as a sorted-independent slice,
// mainly for logging and tests; iteration order over the map is not relied on.
func (p *DataPayload) AvailableRefsList() []string {
	refs := make([]string, 0, len(p.AvailableRefs))
	for ref := range p.AvailableRefs {
		refs = append(refs, ref)
	}
	return refs
}
