// ABOUTME: search and fetch tool handlers.
// ABOUTME: Parse free text into a filtered statement and shape rows as search result items.

package tools

import (
	"context"
	"errors"

	"github.com/satriotsubasa/dataverse-mcp/internal/executor"
	"github.com/satriotsubasa/dataverse-mcp/internal/query"
	"github.com/satriotsubasa/dataverse-mcp/internal/transform"
)

var errEmptyID = errors.New("id is required")

// SearchOutput is the result of the search tool.
type SearchOutput struct {
	Results []transform.SearchResult `json:"results"`
}

func (d *Dispatcher) search(ctx context.Context, exec executor.QueryExecutor, args Arguments) (any, error) {
	text, err := args.RequiredString("query")
	if err != nil {
		return nil, err
	}

	limit, ok := args.Int("limit")
	if !ok || limit <= 0 || limit > d.maxResults {
		limit = d.maxResults
	}

	parsed := query.ParseSearch(text, d.mapping)
	d.logger.Debug("parsed search query",
		"mode", parsed.Mode.String(),
		"terms", len(parsed.Terms),
		"residual", parsed.Residual,
	)

	stmt, err := query.NewBuilder(exec.Dialect()).Search(d.target, parsed, limit)
	if err != nil {
		return nil, failed("Search failed: ", err)
	}

	rs, err := exec.Execute(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, failed("Search failed: ", err)
	}

	return SearchOutput{Results: d.entity.FromPayload(rs)}, nil
}

func (d *Dispatcher) fetch(ctx context.Context, exec executor.QueryExecutor, args Arguments) (any, error) {
	raw, err := args.RequiredString("id")
	if err != nil {
		return nil, err
	}
	id := transform.NormalizeID(raw)
	if id == "" {
		return nil, invalidParams(errEmptyID)
	}

	stmt, err := query.NewBuilder(exec.Dialect()).FetchByID(d.target, id)
	if err != nil {
		return nil, failed("Fetch failed: ", err)
	}

	rs, err := exec.Execute(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, failed("Fetch failed: ", err)
	}
	if rs.Len() == 0 {
		return nil, nil
	}

	item := d.entity.Item(rs.Rows[0])
	return &item, nil
}
