// ABOUTME: database/sql backed QueryExecutor with sqlite, postgres, mysql and libsql drivers.
// ABOUTME: Scans rows into ordered column maps and applies a per-query timeout.

package executor

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	libsql "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Config describes how to reach the backing store.
type Config struct {
	Driver       string
	DSN          string
	AuthToken    string
	MaxOpenConns int
	QueryTimeout time.Duration
	Logger       *slog.Logger
}

// SQLExecutor implements QueryExecutor on top of database/sql.
type SQLExecutor struct {
	db      *sql.DB
	dialect Dialect
	timeout time.Duration
	logger  *slog.Logger
	closed  atomic.Bool
}

// Open connects to the configured store and verifies the connection.
func Open(ctx context.Context, cfg Config) (*SQLExecutor, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is required")
	}

	db, dialect, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	if isMemoryDSN(cfg.DSN) {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s database: %w", cfg.Driver, err)
	}

	return New(db, dialect, cfg.QueryTimeout, cfg.Logger), nil
}

// New wraps an already opened database.
func New(db *sql.DB, dialect Dialect, timeout time.Duration, logger *slog.Logger) *SQLExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLExecutor{
		db:      db,
		dialect: dialect,
		timeout: timeout,
		logger:  logger.With("component", "executor"),
	}
}

func openDB(cfg Config) (*sql.DB, Dialect, error) {
	driverName := strings.ToLower(cfg.Driver)
	if driverName == "" {
		driverName = "sqlite"
	}
	if (driverName == "sqlite" || driverName == "sqlite3") && isRemoteDSN(cfg.DSN) {
		driverName = "libsql"
	}

	switch driverName {
	case "sqlite", "sqlite3":
		db, err := sql.Open(driverName, cfg.DSN)
		if err != nil {
			return nil, "", fmt.Errorf("opening sqlite database: %w", err)
		}
		return db, DialectSQLite, nil
	case "postgres":
		db, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, "", fmt.Errorf("opening postgres database: %w", err)
		}
		return db, DialectPostgres, nil
	case "mysql":
		db, err := sql.Open("mysql", cfg.DSN)
		if err != nil {
			return nil, "", fmt.Errorf("opening mysql database: %w", err)
		}
		return db, DialectMySQL, nil
	case "libsql":
		var (
			connector driver.Connector
			err       error
		)
		if cfg.AuthToken != "" {
			connector, err = libsql.NewConnector(cfg.DSN, libsql.WithAuthToken(cfg.AuthToken))
		} else {
			connector, err = libsql.NewConnector(cfg.DSN)
		}
		if err != nil {
			return nil, "", fmt.Errorf("creating libsql connector: %w", err)
		}
		return sql.OpenDB(connector), DialectSQLite, nil
	default:
		return nil, "", fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// isRemoteDSN reports whether dsn points at a libsql server rather than a file.
func isRemoteDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "http://") ||
		strings.HasPrefix(dsn, "https://") ||
		strings.HasPrefix(dsn, "libsql://")
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// Execute runs query and scans every row.
func (e *SQLExecutor) Execute(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	if e.closed.Load() {
		return nil, &QueryError{Query: query, Detail: ErrClosed.Error(), Err: ErrClosed}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &QueryError{Query: query, Detail: err.Error(), Err: err}
	}
	defer rows.Close()

	rs, err := scanRows(rows)
	if err != nil {
		return nil, &QueryError{Query: query, Detail: err.Error(), Err: err}
	}

	e.logger.Debug("query executed",
		"rows", len(rs.Rows),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return rs, nil
}

// Exec runs a statement that returns no rows. It is used by local tooling
// such as the seed command and is not part of QueryExecutor.
func (e *SQLExecutor) Exec(ctx context.Context, stmt string, args ...any) error {
	if _, err := e.db.ExecContext(ctx, stmt, args...); err != nil {
		return &QueryError{Query: stmt, Detail: err.Error(), Err: err}
	}
	return nil
}

// Dialect reports the SQL flavour of the connected store.
func (e *SQLExecutor) Dialect() Dialect {
	return e.dialect
}

// Ping checks the connection.
func (e *SQLExecutor) Ping(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.db.PingContext(ctx)
}

// Close closes the underlying database. It is safe to call multiple times.
func (e *SQLExecutor) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	return e.db.Close()
}

// scanRows reads every row into a column map, converting []byte values to strings.
func scanRows(rows *sql.Rows) (*ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Columns: columns, Rows: []map[string]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		rs.Rows = append(rs.Rows, row)
	}

	return rs, rows.Err()
}
