// ABOUTME: QueryExecutor interface and result types shared by the tool layer.
// ABOUTME: ResultSet carries ordered column names and one map per row.

package executor

import (
	"context"
	"errors"
)

// Dialect identifies the SQL flavour of the backing store.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// QueryExecutor runs read queries against the backing store.
type QueryExecutor interface {
	// Execute runs query with positional args and returns every row.
	Execute(ctx context.Context, query string, args ...any) (*ResultSet, error)
	// Dialect reports the SQL flavour statements must be written in.
	Dialect() Dialect
	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// ResultSet is the tabular result of a query. Rows keep the order the store
// returned them in.
type ResultSet struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Len returns the number of rows.
func (r *ResultSet) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// ErrClosed is returned by Execute after Close.
var ErrClosed = errors.New("executor is closed")

// QueryError wraps a failed query with the detail reported by the store.
type QueryError struct {
	Query  string
	Detail string
	Err    error
}

func (e *QueryError) Error() string {
	return e.Detail
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
