// ABOUTME: Schema introspection tool handlers.
// ABOUTME: Tables, a single table with its primary key, and per-column field metadata.

package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/satriotsubasa/dataverse-mcp/internal/executor"
	"github.com/satriotsubasa/dataverse-mcp/internal/mcp"
	"github.com/satriotsubasa/dataverse-mcp/internal/query"
)

const metadataFailed = "Metadata retrieval failed: "

// TablesOutput is the result of GetMetadataForAllTables.
type TablesOutput struct {
	Tables []map[string]any `json:"tables"`
}

// TableMetadataOutput is the result of GetMetadataByTableName.
type TableMetadataOutput struct {
	Table       map[string]any `json:"table"`
	ColumnCount int            `json:"columnCount"`
	PrimaryKey  []string       `json:"primaryKey"`
}

// FieldMetadataOutput is the result of GetFieldMetadataByTableName.
type FieldMetadataOutput struct {
	TableName string           `json:"tableName"`
	Fields    []map[string]any `json:"fields"`
}

func (d *Dispatcher) allTablesMetadata(ctx context.Context, exec executor.QueryExecutor, _ Arguments) (any, error) {
	stmt, err := query.NewBuilder(exec.Dialect()).Tables()
	if err != nil {
		return nil, failed(metadataFailed, err)
	}
	rs, err := exec.Execute(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, failed(metadataFailed, err)
	}

	tables := rs.Rows
	if tables == nil {
		tables = []map[string]any{}
	}
	return TablesOutput{Tables: tables}, nil
}

func (d *Dispatcher) tableMetadata(ctx context.Context, exec executor.QueryExecutor, args Arguments) (any, error) {
	name, err := tableNameArg(args)
	if err != nil {
		return nil, err
	}
	b := query.NewBuilder(exec.Dialect())

	stmt, err := b.Table(name)
	if err != nil {
		return nil, failed(metadataFailed, err)
	}
	rs, err := exec.Execute(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, failed(metadataFailed, err)
	}
	if rs.Len() == 0 {
		return nil, tableNotFound(name)
	}

	columns, err := d.columns(ctx, exec, b, name)
	if err != nil {
		return nil, err
	}

	pk := []string{}
	for _, col := range columns {
		if truthy(col[query.MetaPrimaryKey]) {
			pk = append(pk, fmt.Sprint(col[query.MetaColumnName]))
		}
	}

	return TableMetadataOutput{Table: rs.Rows[0], ColumnCount: len(columns), PrimaryKey: pk}, nil
}

func (d *Dispatcher) fieldMetadata(ctx context.Context, exec executor.QueryExecutor, args Arguments) (any, error) {
	name, err := tableNameArg(args)
	if err != nil {
		return nil, err
	}

	columns, err := d.columns(ctx, exec, query.NewBuilder(exec.Dialect()), name)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, tableNotFound(name)
	}

	wanted := args.StringSlice("fields")
	if len(wanted) == 0 {
		return FieldMetadataOutput{TableName: name, Fields: columns}, nil
	}

	keep := make(map[string]bool, len(wanted))
	for _, f := range wanted {
		keep[strings.ToLower(strings.TrimSpace(f))] = true
	}
	fields := []map[string]any{}
	for _, col := range columns {
		if keep[strings.ToLower(fmt.Sprint(col[query.MetaColumnName]))] {
			fields = append(fields, col)
		}
	}
	return FieldMetadataOutput{TableName: name, Fields: fields}, nil
}

func (d *Dispatcher) columns(ctx context.Context, exec executor.QueryExecutor, b *query.Builder, table string) ([]map[string]any, error) {
	stmt, err := b.Columns(table)
	if err != nil {
		return nil, failed(metadataFailed, err)
	}
	rs, err := exec.Execute(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, failed(metadataFailed, err)
	}
	if rs.Rows == nil {
		return []map[string]any{}, nil
	}
	return rs.Rows, nil
}

func tableNameArg(args Arguments) (string, error) {
	raw, err := args.RequiredString("tableName")
	if err != nil {
		return "", err
	}
	name, err := query.SanitizeIdentifier(raw)
	if err != nil {
		return "", invalidParams(err)
	}
	return name, nil
}

func tableNotFound(name string) *mcp.JSONRPCError {
	return mcp.Errorf(mcp.JSONRPCInvalidParams, "Table not found: %s", name)
}

// truthy interprets the primary key flag as drivers report it.
func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case int64:
		return b != 0
	case int:
		return b != 0
	case float64:
		return b != 0
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(b), 10, 64)
		return err == nil && n != 0
	default:
		return false
	}
}
