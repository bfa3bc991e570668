// ABOUTME: GetRowsForTable tool handler.
// ABOUTME: Builds a guarded selection with optional fields, filter, sort and row limit.

package tools

import (
	"context"

	"github.com/satriotsubasa/dataverse-mcp/internal/executor"
	"github.com/satriotsubasa/dataverse-mcp/internal/query"
)

func (d *Dispatcher) rowsForTable(ctx context.Context, exec executor.QueryExecutor, args Arguments) (any, error) {
	name, err := tableNameArg(args)
	if err != nil {
		return nil, err
	}

	top, ok := args.Int("top")
	if !ok || top <= 0 {
		top = DefaultRowsTop
	}
	if top > query.MaxRows {
		top = query.MaxRows
	}
	filter, _ := args.String("filter")
	orderBy, _ := args.String("orderBy")

	stmt, err := query.NewBuilder(exec.Dialect()).Rows(query.RowsRequest{
		Table:   name,
		Fields:  args.StringSlice("fields"),
		Filter:  filter,
		OrderBy: orderBy,
		Top:     top,
	})
	if err != nil {
		if isInvalidInput(err) {
			return nil, invalidParams(err)
		}
		return nil, failed("Row retrieval failed: ", err)
	}

	rs, err := exec.Execute(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, failed("Row retrieval failed: ", err)
	}
	return tableOutput(name, rs), nil
}
