package allowlist

import (
	"errors"
	"os"
	"testing"
)

func TestNew_CompiledInCatalogue(t *testing.T) {
	reg, err := New("")
	if err != nil {
		t.Fatalf("New(\"\") returned error: %v", err)
	}

	if !reg.Validate("kpi_sales_summary") {
		t.Errorf("expected kpi_sales_summary to be a valid query id")
	}
	if reg.Validate("drop_everything") {
		t.Errorf("expected unknown id to be invalid")
	}

	queries := reg.AvailableQueries()
	if len(queries) != len(reg.templates) {
		t.Errorf("AvailableQueries returned %d entries, want %d", len(queries), len(reg.templates))
	}
}

func TestBuildParams(t *testing.T) {
	reg, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		name       string
		id         string
		userParams map[string]any
		wantErr    error
		checkKey   string
	}{
		{
			name:    "unknown id",
			id:      "nope",
			wantErr: ErrInvalidQuery,
		},
		{
			name:     "defaults fill in when omitted",
			id:       "ts_sales_by_day",
			checkKey: "date_from",
		},
		{
			name:       "user override wins over default",
			id:         "ts_sales_by_day",
			userParams: map[string]any{"limit": 5},
			checkKey:   "limit",
		},
		{
			name:       "nil user value does not override default",
			id:         "ts_sales_by_day",
			userParams: map[string]any{"limit": nil},
			checkKey:   "limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, err := reg.BuildParams(tt.id, tt.userParams)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got err %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.checkKey != "" {
				if _, ok := params[tt.checkKey]; !ok {
					t.Errorf("expected param %q to be set", tt.checkKey)
				}
			}
		})
	}

	if params, err := reg.BuildParams("ts_sales_by_day", map[string]any{"limit": 7}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	} else if params["limit"] != 7 {
		t.Errorf("user override not applied: got %v", params["limit"])
	}
}

func TestNew_RejectsOverrideWithForbiddenToken(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/overrides.yaml"
	yaml := `
queries:
  - id: evil
    description: not allowlisted
    sql: "WITH x AS (DELETE FROM ml_orders RETURNING 1) SELECT * FROM x"
    output_type: table
    output_ref: evil
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	if _, err := New(path); !errors.Is(err, ErrUnsafeSQL) {
		t.Fatalf("got err %v, want ErrUnsafeSQL", err)
	}
}

func TestBuildParams_RequiredParamsHaveDefaults(t *testing.T) {
	reg, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// kpi_sales_summary requires date_from/date_to but both have defaults,
	// so it should never fail on its own. Removing a default directly via
	// the catalogue isn't exposed, so we assert the happy path instead:
	// every compiled-in template with RequiredParams also ships defaults
	// for all of them.
	for id, tmpl := range reg.templates {
		if len(tmpl.RequiredParams) == 0 {
			continue
		}
		if _, err := reg.BuildParams(id, nil); err != nil {
			t.Errorf("template %s: required params not satisfied by defaults: %v", id, err)
		}
	}
}
