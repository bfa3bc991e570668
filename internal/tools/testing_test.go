// ABOUTME: Shared fixtures for tool tests.
// ABOUTME: Seeds an in-memory sqlite matters table and provides stub collaborators.

package tools

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/satriotsubasa/dataverse-mcp/internal/executor"
	"github.com/satriotsubasa/dataverse-mcp/internal/query"
	"github.com/satriotsubasa/dataverse-mcp/internal/transform"
)

func openMatters(t *testing.T) *executor.SQLExecutor {
	t.Helper()
	ex, err := executor.Open(context.Background(), executor.Config{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { ex.Close() })

	ctx := context.Background()
	require.NoError(t, ex.Exec(ctx, `CREATE TABLE matters (
		matterid TEXT PRIMARY KEY,
		name TEXT,
		code TEXT,
		description TEXT,
		clientname TEXT,
		highlyconfidential INTEGER
	)`))
	require.NoError(t, ex.Exec(ctx, `INSERT INTO matters VALUES
		('{11111111-1111-1111-1111-111111111111}', 'Acme merger', 'LEG-100', 'Merger of Acme and Widget', 'Acme Ltd', NULL),
		('{22222222-2222-2222-2222-222222222222}', 'Birch lease', 'LEG-101', NULL, 'Birch plc', 0),
		('{33333333-3333-3333-3333-333333333333}', 'Cobalt dispute', 'LEG-102', 'Board-level dispute', 'Cobalt Inc', 1),
		('{44444444-4444-4444-4444-444444444444}', NULL, 'LIT-200', NULL, 'Acme Ltd', NULL)`))
	return ex
}

func testEntity() transform.Entity {
	return transform.Entity{
		Kind:              "matter",
		IDColumn:          "matterid",
		NameColumn:        "name",
		CodeColumn:        "code",
		DescriptionColumn: "description",
		ServiceURL:        "dataverse://matters",
		Classification:    "Standard",
	}
}

func testConfig(exec executor.QueryExecutor) Config {
	entity := testEntity()
	return Config{
		Executor: exec,
		Target: query.Target{
			Table:              "matters",
			IDColumn:           "matterid",
			ConfidentialColumn: "highlyconfidential",
			DefaultColumns:     []string{"name", "code", "description"},
		},
		Mapping: query.NewFieldMapping("name", "code", "description", map[string]string{"client": "clientname"}),
		Entity:  entity,
	}
}

// failingExecutor fails every query with a fixed detail.
type failingExecutor struct {
	calls int
}

func (f *failingExecutor) Execute(_ context.Context, q string, _ ...any) (*executor.ResultSet, error) {
	f.calls++
	return nil, &executor.QueryError{Query: q, Detail: "no such table: matters", Err: errors.New("sql error")}
}

func (f *failingExecutor) Dialect() executor.Dialect  { return executor.DialectSQLite }
func (f *failingExecutor) Ping(context.Context) error { return nil }
func (f *failingExecutor) Close() error               { return nil }

// countingExecutor counts queries passed to a real executor.
type countingExecutor struct {
	executor.QueryExecutor
	mu    sync.Mutex
	calls int
}

func (c *countingExecutor) Execute(ctx context.Context, q string, args ...any) (*executor.ResultSet, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.QueryExecutor.Execute(ctx, q, args...)
}

func (c *countingExecutor) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type memRecorder struct {
	mu      sync.Mutex
	records []Record
	err     error
}

func (m *memRecorder) RecordToolCall(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return m.err
}
