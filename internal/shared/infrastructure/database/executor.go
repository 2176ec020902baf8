package database

import (
	"context"
	"database/sql"
)

// Row represents a single result row, abstracting pgx.Row and *sql.Row.
type Row interface {
	Scan(dest ...any) error
}

// Rows represents multiple result rows, abstracting pgx.Rows and *sql.Rows.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Result represents the result of an Exec operation.
type Result interface {
	RowsAffected() (int64, error)
	LastInsertId() (int64, error)
}

// Executor runs queries against whichever backend is wired in. Repositories
// depend on this and nothing else.
type Executor interface {
	// Exec executes a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...any) (Result, error)

	// QueryRow executes a query that returns at most one row.
	QueryRow(ctx context.Context, query string, args ...any) Row

	// Query executes a query that returns multiple rows.
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Transaction wraps Executor with Commit/Rollback.
type Transaction interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is a database handle that can open transactions.
type Connection interface {
	Executor
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
	Ping(ctx context.Context) error
	Driver() Driver
}

type sqlResult struct {
	result sql.Result
}

func (r *sqlResult) RowsAffected() (int64, error) {
	return r.result.RowsAffected()
}

func (r *sqlResult) LastInsertId() (int64, error) {
	return r.result.LastInsertId()
}

// WrapSQLResult adapts a sql.Result to the Result interface.
func WrapSQLResult(r sql.Result) Result {
	return &sqlResult{result: r}
}

type sqlRows struct {
	rows *sql.Rows
}

func (r *sqlRows) Next() bool              { return r.rows.Next() }
func (r *sqlRows) Scan(dest ...any) error  { return r.rows.Scan(dest...) }
func (r *sqlRows) Close() error            { return r.rows.Close() }
func (r *sqlRows) Err() error              { return r.rows.Err() }

// WrapSQLRows adapts sql.Rows to the Rows interface.
func WrapSQLRows(r *sql.Rows) Rows {
	return &sqlRows{rows: r}
}
