// ABOUTME: Tests for the schema introspection tools and GetRowsForTable.
// ABOUTME: Uses sqlite catalogue statements against the seeded matters table.

package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriotsubasa/dataverse-mcp/internal/mcp"
	"github.com/satriotsubasa/dataverse-mcp/internal/query"
)

func TestGetMetadataForAllTables(t *testing.T) {
	d := NewDispatcher(testConfig(openMatters(t)))

	result, err := d.Call(context.Background(), ToolGetMetadataForAllTables, nil)
	require.NoError(t, err)

	out, ok := result.(TablesOutput)
	require.True(t, ok)
	require.Len(t, out.Tables, 1)
	assert.Equal(t, "matters", out.Tables[0][query.MetaTableName])
	assert.Equal(t, "table", out.Tables[0][query.MetaTableType])
}

func TestGetMetadataByTableName(t *testing.T) {
	d := NewDispatcher(testConfig(openMatters(t)))

	result, err := d.Call(context.Background(), ToolGetMetadataByTableName, json.RawMessage(`{"tableName":"matters"}`))
	require.NoError(t, err)

	out, ok := result.(TableMetadataOutput)
	require.True(t, ok)
	assert.Equal(t, "matters", out.Table[query.MetaTableName])
	assert.Contains(t, out.Table[query.MetaDefinition], "CREATE TABLE matters")
	assert.Equal(t, 6, out.ColumnCount)
	assert.Equal(t, []string{"matterid"}, out.PrimaryKey)
}

func TestGetMetadataByTableName_Errors(t *testing.T) {
	d := NewDispatcher(testConfig(openMatters(t)))

	tests := []struct {
		name    string
		args    string
		wantMsg string
	}{
		{"missing table name", `{}`, "Invalid params: tableName is required"},
		{"unknown table", `{"tableName":"nope"}`, "Table not found: nope"},
		{"injection attempt", `{"tableName":"matters; DROP TABLE matters"}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Call(context.Background(), ToolGetMetadataByTableName, json.RawMessage(tt.args))
			rpcErr := requireToolError(t, err, mcp.JSONRPCInvalidParams)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, rpcErr.Message)
			}
		})
	}
}

func TestGetFieldMetadataByTableName(t *testing.T) {
	d := NewDispatcher(testConfig(openMatters(t)))
	ctx := context.Background()

	t.Run("all fields", func(t *testing.T) {
		result, err := d.Call(ctx, ToolGetFieldMetadataByTableName, json.RawMessage(`{"tableName":"matters"}`))
		require.NoError(t, err)
		out := result.(FieldMetadataOutput)
		assert.Equal(t, "matters", out.TableName)
		require.Len(t, out.Fields, 6)
		assert.Equal(t, "matterid", out.Fields[0][query.MetaColumnName])
		assert.Equal(t, "TEXT", out.Fields[0][query.MetaDataType])
		assert.EqualValues(t, 1, out.Fields[0][query.MetaPrimaryKey])
	})

	t.Run("selected fields are case-insensitive", func(t *testing.T) {
		result, err := d.Call(ctx, ToolGetFieldMetadataByTableName, json.RawMessage(`{"tableName":"matters","fields":["CODE","name","missing"]}`))
		require.NoError(t, err)
		out := result.(FieldMetadataOutput)
		require.Len(t, out.Fields, 2)
		assert.Equal(t, "name", out.Fields[0][query.MetaColumnName])
		assert.Equal(t, "code", out.Fields[1][query.MetaColumnName])
	})

	t.Run("malformed fields means all fields", func(t *testing.T) {
		result, err := d.Call(ctx, ToolGetFieldMetadataByTableName, json.RawMessage(`{"tableName":"matters","fields":"name"}`))
		require.NoError(t, err)
		assert.Len(t, result.(FieldMetadataOutput).Fields, 6)
	})

	t.Run("unknown table", func(t *testing.T) {
		_, err := d.Call(ctx, ToolGetFieldMetadataByTableName, json.RawMessage(`{"tableName":"nope"}`))
		rpcErr := requireToolError(t, err, mcp.JSONRPCInvalidParams)
		assert.Equal(t, "Table not found: nope", rpcErr.Message)
	})

	t.Run("executor failure", func(t *testing.T) {
		failing := NewDispatcher(testConfig(&failingExecutor{}))
		_, err := failing.Call(ctx, ToolGetFieldMetadataByTableName, json.RawMessage(`{"tableName":"matters"}`))
		rpcErr := requireToolError(t, err, mcp.JSONRPCInternalError)
		assert.Equal(t, "Metadata retrieval failed: no such table: matters", rpcErr.Message)
	})
}

func TestGetRowsForTable(t *testing.T) {
	d := NewDispatcher(testConfig(openMatters(t)))

	result, err := d.Call(context.Background(), ToolGetRowsForTable, json.RawMessage(`{
		"tableName": "matters",
		"fields": ["code", "name"],
		"filter": "code LIKE 'LEG%'",
		"orderBy": "code DESC",
		"top": "2"
	}`))
	require.NoError(t, err)

	out, ok := result.(TableOutput)
	require.True(t, ok)
	assert.Equal(t, "matters", out.TableName)
	assert.Equal(t, []string{"code", "name"}, out.Columns)
	require.Equal(t, 2, out.RowCount)
	assert.Equal(t, "LEG-102", out.Rows[0]["code"])
	assert.Equal(t, "LEG-101", out.Rows[1]["code"])
}

func TestGetRowsForTable_Defaults(t *testing.T) {
	d := NewDispatcher(testConfig(openMatters(t)))

	result, err := d.Call(context.Background(), ToolGetRowsForTable, json.RawMessage(`{"tableName":"matters","top":0}`))
	require.NoError(t, err)

	out := result.(TableOutput)
	assert.Equal(t, 4, out.RowCount)
	assert.Len(t, out.Columns, 6)
}

func TestGetRowsForTable_Rejected(t *testing.T) {
	d := NewDispatcher(testConfig(openMatters(t)))

	tests := []struct {
		name string
		args string
	}{
		{"missing table", `{}`},
		{"bad table", `{"tableName":"matters m"}`},
		{"bad field", `{"tableName":"matters","fields":["name; --"]}`},
		{"write in filter", `{"tableName":"matters","filter":"1=1; DELETE FROM matters"}`},
		{"bad order", `{"tableName":"matters","orderBy":"name sideways"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Call(context.Background(), ToolGetRowsForTable, json.RawMessage(tt.args))
			requireToolError(t, err, mcp.JSONRPCInvalidParams)
		})
	}
}

func TestGetRowsForTable_Failure(t *testing.T) {
	d := NewDispatcher(testConfig(openMatters(t)))

	_, err := d.Call(context.Background(), ToolGetRowsForTable, json.RawMessage(`{"tableName":"matters","filter":"no_such_column = 1"}`))
	rpcErr := requireToolError(t, err, mcp.JSONRPCInternalError)
	assert.Contains(t, rpcErr.Message, "Row retrieval failed: ")
}

func TestTruthy(t *testing.T) {
	assert.True(t, truthy(int64(1)))
	assert.True(t, truthy(true))
	assert.True(t, truthy("1"))
	assert.False(t, truthy(int64(0)))
	assert.False(t, truthy("0"))
	assert.False(t, truthy(nil))
}
