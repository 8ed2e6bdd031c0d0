package model

import (
	"encoding/json"
	"fmt"
)

// Format is the display format for a KpiCard's value.
type Format string

const (
	FormatCurrency Format = "currency"
	FormatNumber   Format = "number"
	FormatPercent  Format = "percent"
)

// ChartType distinguishes the visual shape of a Chart.
type ChartType string

const (
	ChartLine ChartType = "line_chart"
	ChartArea ChartType = "area_chart"
	ChartBar  ChartType = "bar_chart"
)

// SlotKind is the discriminant for a polymorphic dashboard slot child
// (KpiCard / Chart / Table / ComparisonChart). Serializers emit it as a
// "type" field so clients can dispatch on it; a chart's "type" is its
// ChartType (line_chart, area_chart or bar_chart) instead.
type SlotKind string

const (
	SlotKpiCard         SlotKind = "kpi_card"
	SlotChart           SlotKind = "chart"
	SlotTable           SlotKind = "table"
	SlotComparisonChart SlotKind = "comparison_chart"
)

// KpiCard renders one headline metric.
type KpiCard struct {
	Label    string  `json:"label"`
	ValueRef string  `json:"value_ref"` // -> kpi.*
	Format   Format  `json:"format"`
	DeltaRef *string `json:"delta_ref,omitempty"`
}

// Chart renders one time series or ranking.
type Chart struct {
	Type       ChartType `json:"type"`
	Title      string    `json:"title"`
	DatasetRef string    `json:"dataset_ref"` // -> ts.* or top.*
	XAxis      string    `json:"x_axis"`
	YAxis      string    `json:"y_axis"`
}

// TableConfig renders one set of raw rows.
type TableConfig struct {
	Title      string   `json:"title"`
	DatasetRef string   `json:"dataset_ref"` // -> table.*
	Columns    []string `json:"columns"`
	MaxRows    int      `json:"max_rows"`
}

// ComparisonChart renders a dual-period comparison.
type ComparisonChart struct {
	Title   string   `json:"title"`
	Metrics []string `json:"metrics"`
}

// SlotChild is a tagged union over KpiCard/Chart/TableConfig/ComparisonChart.
// Exactly one of the typed fields is non-nil, matching Kind. MarshalJSON
// flattens the active variant and injects a `type` discriminant (for a
// chart, its own ChartType) so the wire shape stays a plain object, as
// the client expects.
type SlotChild struct {
	Kind            SlotKind
	KpiCard         *KpiCard
	Chart           *Chart
	Table           *TableConfig
	ComparisonChart *ComparisonChart
}

func NewKpiCardSlot(c KpiCard) SlotChild       { return SlotChild{Kind: SlotKpiCard, KpiCard: &c} }
func NewChartSlot(c Chart) SlotChild           { return SlotChild{Kind: SlotChart, Chart: &c} }
func NewTableSlot(c TableConfig) SlotChild     { return SlotChild{Kind: SlotTable, Table: &c} }
func NewComparisonSlot(c ComparisonChart) SlotChild {
	return SlotChild{Kind: SlotComparisonChart, ComparisonChart: &c}
}

func (s SlotChild) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SlotKpiCard:
		return marshalWithType(s.Kind, s.KpiCard)
	case SlotChart:
		return json.Marshal(s.Chart)
	case SlotTable:
		return marshalWithType(s.Kind, s.Table)
	case SlotComparisonChart:
		return marshalWithType(s.Kind, s.ComparisonChart)
	default:
		return json.Marshal(struct{}{})
	}
}

// UnmarshalJSON restores the tagged union from its flattened wire form,
// dispatching on the `type` discriminant. Needed so cached specs
// round-trip through the Composer cache without losing slot children.
func (s *SlotChild) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type SlotKind `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	s.Kind = probe.Type
	switch probe.Type {
	case SlotKpiCard:
		s.KpiCard = &KpiCard{}
		return json.Unmarshal(data, s.KpiCard)
	case SlotChart, SlotKind(ChartLine), SlotKind(ChartArea), SlotKind(ChartBar):
		s.Kind = SlotChart
		s.Chart = &Chart{}
		return json.Unmarshal(data, s.Chart)
	case SlotTable:
		s.Table = &TableConfig{}
		return json.Unmarshal(data, s.Table)
	case SlotComparisonChart:
		s.ComparisonChart = &ComparisonChart{}
		return json.Unmarshal(data, s.ComparisonChart)
	default:
		return fmt.Errorf("model: unknown slot child type %q", probe.Type)
	}
}

func marshalWithType(kind SlotKind, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	fields["type"] = json.RawMessage(`"` + string(kind) + `"`)
	return json.Marshal(fields)
}

// NarrativeBlockType distinguishes headline/summary/insight/callout text.
type NarrativeBlockType string

const (
	NarrativeHeadline NarrativeBlockType = "headline"
	NarrativeSummary  NarrativeBlockType = "summary"
	NarrativeInsight  NarrativeBlockType = "insight"
	NarrativeCallout  NarrativeBlockType = "callout"
)

type NarrativeBlock struct {
	Type NarrativeBlockType `json:"type"`
	Text string             `json:"text"`
}

// DashboardSlots groups the visual components of a DashboardSpec.
type DashboardSlots struct {
	Filters   []string         `json:"filters"`
	Series    []KpiCard        `json:"series"`
	Charts    []SlotChild      `json:"charts"`
	Narrative []NarrativeBlock `json:"narrative"`
}

// DashboardSpec is the Composer's output: the wire contract streamed to
// the client as a `data-dashboard` event.
type DashboardSpec struct {
	Title       string         `json:"title"`
	Subtitle    string         `json:"subtitle,omitempty"`
	Conclusion  string         `json:"conclusion,omitempty"`
	GeneratedAt string         `json:"generated_at"`
	Slots       DashboardSlots `json:"slots"`
}
