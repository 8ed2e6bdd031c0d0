package allowlist

// OutputType dictates how the Data Executor projects a template's rows
// into the DataPayload shape.
type OutputType string

const (
	OutputKPI        OutputType = "kpi"
	OutputTimeSeries OutputType = "time_series"
	OutputTopItems   OutputType = "top_items"
	OutputTable      OutputType = "table"
)

// Template is one allowlist entry: a parameterized SELECT, its parameter
// contract, and the output shape it produces. Templates are immutable
// after Registry construction.
type Template struct {
	ID             string
	Description    string
	SQL            string // named placeholders, bound via pgx.NamedArgs — never string-built
	RequiredParams []string
	DefaultParams  map[string]func() any // thunks, evaluated at call time (not at load time)
	OutputType     OutputType
	OutputRef      string
}

func days(n int) func() any {
	return func() any { return isoDateDaysAgo(n) }
}

func today() func() any {
	return func() any { return isoToday() }
}

func constant(v any) func() any {
	return func() any { return v }
}
