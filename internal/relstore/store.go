// Package relstore executes allowlisted templates against the relational
// store and returns rows as generic maps for the Data Executor to project.
package relstore

import "context"

// Row is one result row keyed by column name.
type Row map[string]any

// Store runs a parameterized, allowlisted SELECT and returns its rows.
// sql must already be a validated allowlist.Template.SQL string; params
// are bound by name, never interpolated into sql.
type Store interface {
	Query(ctx context.Context, sql string, params map[string]any) ([]Row, error)
}
