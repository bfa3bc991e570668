// Package store persists the tool-call audit trail for dataverse-mcp.
//
// # Overview
//
// Every tools/call handled by the dispatcher can be recorded as a ToolCall
// row: the tool name, the arguments as JSON, how long the call took,
// whether it was served from cache, and the JSON-RPC error if it failed.
// The audit trail is written to a local SQLite database through gorm and is
// separate from the backing store the tools query.
//
// # Usage
//
//	s, err := store.Open(ctx, "/var/lib/dataverse-mcp/audit.db", logger)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	calls, err := s.ListToolCalls(ctx, store.ToolCallFilter{Tool: "search", Limit: 20})
//
// Listing is newest first. The default limit is 100 and the maximum 1000.
package store
