package allowlist

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// selectOnly matches a single statement that starts with SELECT or WITH,
// the load-time half of the "never string-built" safety invariant (the
// call-time half is that every value is bound through @name placeholders,
// never interpolated into the SQL text).
var selectOnly = regexp.MustCompile(`(?is)^\s*(with|select)\b`)

// forbiddenTokens: none of these may appear anywhere in a template's
// SQL, not just outside the leading keyword, so that a WITH-clause cannot
// smuggle a mutating statement past the selectOnly prefix check.
var forbiddenTokens = regexp.MustCompile(`(?is)` + strings.Join([]string{
	`\bINSERT\s+INTO\b`, `\bUPDATE\b.*\bSET\b`, `\bDELETE\s+FROM\b`,
	`\bDROP\b`, `\bTRUNCATE\b`, `\bALTER\b`, `\bCREATE\b`,
	`\bGRANT\b`, `\bREVOKE\b`, `\bEXEC\b`, `\bEXECUTE\b`,
	`--`, `/\*`,
}, "|"))

// Registry is the process-wide, immutable-after-load set of allowlisted
// query templates. One Registry is built at startup and shared by every
// request; nothing mutates it afterwards.
type Registry struct {
	templates map[string]Template
}

// overrideFile is the YAML shape accepted by an allowlist override path.
// It can add templates or replace existing ones wholesale; it can never
// alter SQL at request time, only at process start.
type overrideFile struct {
	Queries []overrideTemplate `yaml:"queries"`
}

type overrideTemplate struct {
	ID             string         `yaml:"id"`
	Description    string         `yaml:"description"`
	SQL            string         `yaml:"sql"`
	RequiredParams []string       `yaml:"required_params"`
	DefaultParams  map[string]any `yaml:"default_params"`
	OutputType     string         `yaml:"output_type"`
	OutputRef      string         `yaml:"output_ref"`
}

// New builds a Registry from the compiled-in catalogue, optionally merged
// with a YAML override file. An empty overridePath
// skips the merge entirely.
func New(overridePath string) (*Registry, error) {
	templates := newCatalogue()

	if overridePath != "" {
		if err := mergeOverrides(templates, overridePath); err != nil {
			return nil, fmt.Errorf("allowlist: loading overrides: %w", err)
		}
	}

	for id, t := range templates {
		if !selectOnly.MatchString(t.SQL) {
			return nil, fmt.Errorf("%w: %s", ErrUnsafeSQL, id)
		}
		if strings.Count(strings.TrimRight(strings.TrimSpace(t.SQL), ";"), ";") > 0 {
			return nil, fmt.Errorf("%w: %s (multiple statements)", ErrUnsafeSQL, id)
		}
		if forbiddenTokens.MatchString(t.SQL) {
			return nil, fmt.Errorf("%w: %s (forbidden token)", ErrUnsafeSQL, id)
		}
	}

	return &Registry{templates: templates}, nil
}

func mergeOverrides(into map[string]Template, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading override file: %w", err)
	}

	var parsed overrideFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parsing override yaml: %w", err)
	}

	seen := make(map[string]struct{}, len(parsed.Queries))
	for _, o := range parsed.Queries {
		if o.ID == "" {
			return fmt.Errorf("%w: override entry missing id", ErrInvalidQuery)
		}
		if _, dup := seen[o.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, o.ID)
		}
		seen[o.ID] = struct{}{}

		defaults := make(map[string]func() any, len(o.DefaultParams))
		for k, v := range o.DefaultParams {
			v := v
			defaults[k] = func() any { return v }
		}

		into[o.ID] = Template{
			ID:             o.ID,
			Description:    o.Description,
			SQL:            o.SQL,
			RequiredParams: o.RequiredParams,
			DefaultParams:  defaults,
			OutputType:     OutputType(o.OutputType),
			OutputRef:      o.OutputRef,
		}
	}

	return nil
}

// Get returns the template for id, or false if it is not allowlisted.
func (r *Registry) Get(id string) (Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// Validate reports whether id names an allowlisted template.
func (r *Registry) Validate(id string) bool {
	_, ok := r.templates[id]
	return ok
}

// AvailableQueries returns id -> description for every allowlisted
// template, for use as planner/LLM context (never as SQL source).
func (r *Registry) AvailableQueries() map[string]string {
	out := make(map[string]string, len(r.templates))
	for id, t := range r.templates {
		out[id] = t.Description
	}
	return out
}

// BuildParams merges a template's default params (evaluated now, never
// cached) with caller-supplied overrides, then verifies every required
// param is present. User-supplied nil values do not count as present.
func (r *Registry) BuildParams(id string, userParams map[string]any) (map[string]any, error) {
	t, ok := r.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidQuery, id)
	}

	params := make(map[string]any, len(t.DefaultParams)+len(userParams))
	for k, thunk := range t.DefaultParams {
		params[k] = thunk()
	}
	for k, v := range userParams {
		if v != nil {
			params[k] = v
		}
	}

	for _, req := range t.RequiredParams {
		if _, ok := params[req]; !ok {
			return nil, fmt.Errorf("%w: %s requires %q", ErrMissingParam, id, req)
		}
	}

	return params, nil
}
