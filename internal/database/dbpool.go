package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IsNoRows reports whether err is a no-rows result from either driver.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

// Rows is a driver-agnostic result set.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}

// Row is a driver-agnostic single-row result.
type Row interface {
	Scan(dest ...any) error
}

// Result reports the outcome of a mutation. RowsAffected is the contract
// the OTP conditional-consume and the radcheck update both depend on.
type Result interface {
	RowsAffected() (int64, error)
}

// DBPool is the query surface services depend on. It is satisfied by the
// pgx pool (main store), database/sql handles (RADIUS stores, sqlite), and
// the pgxmock adapter in tests.
type DBPool interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Exec(ctx context.Context, query string, args ...any) (Result, error)
}

// --- pgx adapters ---

type PgxRows struct{ pgx.Rows }

func (r PgxRows) Scan(dest ...any) error { return r.Rows.Scan(dest...) }
func (r PgxRows) Close()                 { r.Rows.Close() }
func (r PgxRows) Err() error             { return r.Rows.Err() }
func (r PgxRows) Next() bool             { return r.Rows.Next() }

type PgxRow struct{ pgx.Row }

func (r PgxRow) Scan(dest ...any) error { return r.Row.Scan(dest...) }

type PgxResult struct{ pgconn.CommandTag }

func (r PgxResult) RowsAffected() (int64, error) { return r.CommandTag.RowsAffected(), nil }

// --- database/sql adapters ---

type SQLRows struct{ *sql.Rows }

func (r SQLRows) Scan(dest ...any) error { return r.Rows.Scan(dest...) }
func (r SQLRows) Close()                 { _ = r.Rows.Close() }
func (r SQLRows) Err() error             { return r.Rows.Err() }
func (r SQLRows) Next() bool             { return r.Rows.Next() }

type SQLRow struct{ *sql.Row }

func (r SQLRow) Scan(dest ...any) error { return r.Row.Scan(dest...) }

type SQLResult struct{ sql.Result }

func (r SQLResult) RowsAffected() (int64, error) { return r.Result.RowsAffected() }

// SQLPool adapts a database/sql handle to DBPool.
type SQLPool struct{ DB *sql.DB }

func (p SQLPool) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := p.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return SQLRows{Rows: rows}, nil
}

func (p SQLPool) QueryRow(ctx context.Context, query string, args ...any) Row {
	return SQLRow{Row: p.DB.QueryRowContext(ctx, query, args...)}
}

func (p SQLPool) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	res, err := p.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return SQLResult{Result: res}, nil
}
