package relstore

import (
	"context"
	"fmt"
	"time"

	"bisage.dev/gateway/core/db"
	"github.com/jackc/pgx/v5"
)

// pgStore runs allowlist templates through the shared pgx pool. Every
// query binds its params through pgx.NamedArgs — the SQL text itself
// never changes per request, only the bound values do.
type pgStore struct {
	db      *db.DB
	timeout time.Duration
}

// NewPostgres wraps a *db.DB as a Store. timeoutSeconds bounds each
// individual query (core/config's DB_TIMEOUT_SECONDS); zero means no
// per-query timeout beyond the caller's context.
func NewPostgres(database *db.DB, timeoutSeconds int) Store {
	var timeout time.Duration
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}
	return &pgStore{db: database, timeout: timeout}
}

func (s *pgStore) Query(ctx context.Context, sql string, params map[string]any) ([]Row, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	args := make(pgx.NamedArgs, len(params))
	for k, v := range params {
		args[k] = v
	}

	rows, err := s.db.Pool().Query(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("relstore: query: %w", err)
	}
	defer rows.Close()

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("relstore: collecting rows: %w", err)
	}

	out := make([]Row, len(maps))
	for i, m := range maps {
		out[i] = Row(m)
	}
	return out, nil
}
