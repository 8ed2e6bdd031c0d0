package dateparse

import "testing"

func TestExtractDateRange_RelativePatterns(t *testing.T) {
	tests := []struct {
		name     string
		question string
		wantFrom bool
	}{
		{"hoy", "cuanto vendimos hoy", true},
		{"ayer", "como estuvo ayer", true},
		{"esta semana", "ventas de esta semana", true},
		{"semana pasada", "ventas de la semana pasada", true},
		{"este mes", "resumen de este mes", true},
		{"mes pasado", "comparar con el mes pasado", true},
		{"ultimos dias", "ventas de los ultimos 7 dias", true},
		{"sin fecha", "cuales son los productos mas vendidos", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := ExtractDateRange(tt.question)
			if tt.wantFrom && from == "" {
				t.Errorf("expected a date range for %q, got none", tt.question)
			}
			if !tt.wantFrom && from != "" {
				t.Errorf("expected no date range for %q, got %s..%s", tt.question, from, to)
			}
		})
	}
}

func TestExtractDateRange_MonthWithYear(t *testing.T) {
	from, to := ExtractDateRange("ventas de diciembre 2024")
	if from != "2024-12-01" || to != "2025-01-01" {
		t.Fatalf("got %s..%s, want 2024-12-01..2025-01-01", from, to)
	}
}

func TestExtractDateRange_QuarterWithYear(t *testing.T) {
	from, to := ExtractDateRange("resultados del q1 2024")
	if from != "2024-01-01" || to != "2024-04-01" {
		t.Fatalf("got %s..%s, want 2024-01-01..2024-04-01", from, to)
	}
}

func TestExtractDateRange_DayRange(t *testing.T) {
	from, to := ExtractDateRange("ventas del 1 al 15 de enero 2024")
	if from != "2024-01-01" || to != "2024-01-16" {
		t.Fatalf("got %s..%s, want 2024-01-01..2024-01-16", from, to)
	}
}

func TestExtractDateRange_SingleDay(t *testing.T) {
	from, to := ExtractDateRange("ventas del 5 de marzo 2024")
	if from != "2024-03-05" || to != "2024-03-06" {
		t.Fatalf("got %s..%s, want 2024-03-05..2024-03-06", from, to)
	}
}

func TestExtractDateRange_CyberMondayIsNovember(t *testing.T) {
	from, to := ExtractDateRange("ventas de cyber monday 2023")
	if from != "2023-11-01" || to != "2023-12-01" {
		t.Fatalf("got %s..%s, want 2023-11-01..2023-12-01", from, to)
	}
}

func TestFormatDateContext_FullMonth(t *testing.T) {
	got := FormatDateContext("2024-12-01", "2025-01-01")
	if got != "Diciembre 2024" {
		t.Fatalf("got %q, want Diciembre 2024", got)
	}
}

func TestFormatDateContext_SingleDay(t *testing.T) {
	got := FormatDateContext("2024-03-05", "2024-03-06")
	if got != "05/03/2024" {
		t.Fatalf("got %q, want 05/03/2024", got)
	}
}

func TestFormatDateContext_Empty(t *testing.T) {
	if got := FormatDateContext("", ""); got != "ultimos 30 dias" {
		t.Fatalf("got %q, want the default fallback label", got)
	}
}

func TestIsComparisonQuery(t *testing.T) {
	tests := []struct {
		question string
		want     bool
	}{
		{"ventas de diciembre vs noviembre", true},
		{"ventas de este mes comparado con el anterior", true},
		{"cuanto vendimos este mes", false},
	}
	for _, tt := range tests {
		if got := IsComparisonQuery(tt.question); got != tt.want {
			t.Errorf("IsComparisonQuery(%q) = %v, want %v", tt.question, got, tt.want)
		}
	}
}

func TestExtractComparisonDates_ExplicitMonths(t *testing.T) {
	cmp := ExtractComparisonDates("ventas de diciembre 2024 vs noviembre 2024")

	if cmp.Current.From != "2024-12-01" || cmp.Current.To != "2025-01-01" {
		t.Errorf("current = %s..%s, want 2024-12-01..2025-01-01", cmp.Current.From, cmp.Current.To)
	}
	if cmp.Previous.From != "2024-11-01" || cmp.Previous.To != "2024-12-01" {
		t.Errorf("previous = %s..%s, want 2024-11-01..2024-12-01", cmp.Previous.From, cmp.Previous.To)
	}
}

func TestExtractComparisonDates_BareMonthAnchorsToFirstPeriod(t *testing.T) {
	cmp := ExtractComparisonDates("ventas de diciembre 2025 vs noviembre")

	if cmp.Current.From != "2025-12-01" || cmp.Current.To != "2026-01-01" {
		t.Errorf("current = %s..%s, want 2025-12-01..2026-01-01", cmp.Current.From, cmp.Current.To)
	}
	if cmp.Previous.From != "2025-11-01" || cmp.Previous.To != "2025-12-01" {
		t.Errorf("previous = %s..%s, want 2025-11-01..2025-12-01", cmp.Previous.From, cmp.Previous.To)
	}
	if cmp.Previous.Label != "Noviembre 2025" {
		t.Errorf("previous label = %q, want Noviembre 2025", cmp.Previous.Label)
	}
}

func TestExtractComparisonDates_PreviousKeywordWithoutDate(t *testing.T) {
	cmp := ExtractComparisonDates("comparar ventas de diciembre 2024 contra el mes anterior")

	if cmp.Current.From != "2024-12-01" {
		t.Fatalf("current.From = %s, want 2024-12-01", cmp.Current.From)
	}
	if cmp.Previous.From != "2024-11-01" || cmp.Previous.To != "2024-12-01" {
		t.Fatalf("previous = %s..%s, want 2024-11-01..2024-12-01", cmp.Previous.From, cmp.Previous.To)
	}
}

func TestExtractComparisonDates_NoDatesDefaultsToMonthPair(t *testing.T) {
	cmp := ExtractComparisonDates("quiero comparar las ventas")

	if cmp.Current.From == "" || cmp.Previous.From == "" {
		t.Fatalf("expected both periods to resolve, got current=%+v previous=%+v", cmp.Current, cmp.Previous)
	}
	if cmp.Current.From == cmp.Previous.From {
		t.Errorf("expected distinct periods, both resolved to %s", cmp.Current.From)
	}
}
