// ABOUTME: Tests for the tool-call audit store
// ABOUTME: Covers open, append, get, filtered listing and per-tool stats

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "audit.db")

	s, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.FileExists(t, path)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "", nil)
	require.Error(t, err)
}

func TestAppendToolCall(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	call := &ToolCall{
		RequestID:  "req-1",
		Tool:       "search",
		Arguments:  datatypes.JSON(`{"query":"code:LEG-100"}`),
		DurationMS: 12,
	}
	require.NoError(t, s.AppendToolCall(ctx, call))

	// Should have generated ID and timestamp
	assert.NotEmpty(t, call.ID)
	assert.False(t, call.CreatedAt.IsZero())

	got, err := s.GetToolCall(ctx, call.ID)
	require.NoError(t, err)
	assert.Equal(t, "search", got.Tool)
	assert.Equal(t, "req-1", got.RequestID)
	assert.JSONEq(t, `{"query":"code:LEG-100"}`, string(got.Arguments))
	assert.EqualValues(t, 12, got.DurationMS)
	assert.False(t, got.Failed())
}

func TestAppendToolCall_DefaultsAndValidation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	call := &ToolCall{Tool: "GetMetadataForAllTables"}
	require.NoError(t, s.AppendToolCall(ctx, call))
	got, err := s.GetToolCall(ctx, call.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(got.Arguments))

	err = s.AppendToolCall(ctx, &ToolCall{Tool: "search", Arguments: datatypes.JSON(`{broken`)})
	require.Error(t, err)
}

func TestGetToolCall_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetToolCall(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListToolCalls(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)

	calls := []*ToolCall{
		{Tool: "search", CreatedAt: base},
		{Tool: "fetch", CreatedAt: base.Add(time.Minute), ErrorCode: -32602, ErrorMessage: "Invalid params: id is required"},
		{Tool: "search", CreatedAt: base.Add(2 * time.Minute)},
		{Tool: "GetMetadataForAllTables", CreatedAt: base.Add(3 * time.Minute), Cached: true},
	}
	for _, c := range calls {
		require.NoError(t, s.AppendToolCall(ctx, c))
	}

	t.Run("no filter is newest first", func(t *testing.T) {
		got, err := s.ListToolCalls(ctx, ToolCallFilter{})
		require.NoError(t, err)
		require.Len(t, got, 4)
		assert.Equal(t, "GetMetadataForAllTables", got[0].Tool)
		assert.Equal(t, "search", got[3].Tool)
	})

	t.Run("by tool", func(t *testing.T) {
		got, err := s.ListToolCalls(ctx, ToolCallFilter{Tool: "search"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("failed only", func(t *testing.T) {
		got, err := s.ListToolCalls(ctx, ToolCallFilter{FailedOnly: true})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "fetch", got[0].Tool)
		assert.True(t, got[0].Failed())
	})

	t.Run("since", func(t *testing.T) {
		since := base.Add(90 * time.Second)
		got, err := s.ListToolCalls(ctx, ToolCallFilter{Since: &since})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := s.ListToolCalls(ctx, ToolCallFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestToolStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, c := range []*ToolCall{
		{Tool: "search"},
		{Tool: "search", ErrorCode: -32603},
		{Tool: "GetMetadataForAllTables"},
		{Tool: "GetMetadataForAllTables", Cached: true},
	} {
		require.NoError(t, s.AppendToolCall(ctx, c))
	}

	stats, err := s.ToolStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, ToolStat{Tool: "GetMetadataForAllTables", Calls: 2, Failures: 0, CacheHit: 1}, stats[0])
	assert.Equal(t, ToolStat{Tool: "search", Calls: 2, Failures: 1, CacheHit: 0}, stats[1])
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, 100, normalizeLimit(0))
	assert.Equal(t, 100, normalizeLimit(-5))
	assert.Equal(t, 50, normalizeLimit(50))
	assert.Equal(t, 1000, normalizeLimit(5000))
}
