// ABOUTME: ExecuteSQL and ConvertFetchXmlToSql tool handlers.
// ABOUTME: Raw SQL passes the read-only guard first; FetchXML is translated without executing.

package tools

import (
	"context"

	"github.com/satriotsubasa/dataverse-mcp/internal/executor"
	"github.com/satriotsubasa/dataverse-mcp/internal/query"
)

// TableOutput is a tabular tool result.
type TableOutput struct {
	TableName string           `json:"tableName,omitempty"`
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"rowCount"`
}

// FetchXMLOutput is the result of ConvertFetchXmlToSql.
type FetchXMLOutput struct {
	SQL        string `json:"sql"`
	Parameters []any  `json:"parameters"`
}

func tableOutput(table string, rs *executor.ResultSet) TableOutput {
	out := TableOutput{TableName: table, Columns: rs.Columns, Rows: rs.Rows, RowCount: rs.Len()}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	if out.Rows == nil {
		out.Rows = []map[string]any{}
	}
	return out
}

func (d *Dispatcher) executeSQL(ctx context.Context, exec executor.QueryExecutor, args Arguments) (any, error) {
	sql, err := args.RequiredString("query")
	if err != nil {
		return nil, err
	}
	if err := query.CheckReadOnly(sql); err != nil {
		return nil, invalidParams(err)
	}

	rs, err := exec.Execute(ctx, sql)
	if err != nil {
		return nil, failed("SQL execution failed: ", err)
	}
	return tableOutput("", rs), nil
}

func (d *Dispatcher) convertFetchXML(_ context.Context, exec executor.QueryExecutor, args Arguments) (any, error) {
	doc, err := args.RequiredString("fetchXml")
	if err != nil {
		return nil, err
	}

	stmt, err := query.NewBuilder(exec.Dialect()).TranslateFetchXML(doc)
	if err != nil {
		if isInvalidInput(err) {
			return nil, invalidParams(err)
		}
		return nil, failed("FetchXML conversion failed: ", err)
	}

	params := stmt.Args
	if params == nil {
		params = []any{}
	}
	return FetchXMLOutput{SQL: stmt.SQL, Parameters: params}, nil
}
