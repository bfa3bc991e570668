// Package gateway wires the dataverse-mcp components into a running server.
//
// # Components
//
//   - Query executor: opened from the database section when a DSN is set.
//     A failed connection is logged and the executor is left unset, so the
//     server still answers initialize and tools/list while every tool call
//     reports the service as unavailable.
//   - Metadata cache: in-memory TTL cache shared by the metadata tools.
//   - Audit store: optional gorm/SQLite log of every tool call.
//   - Dispatcher, router and MCP HTTP endpoint.
//
// # HTTP Endpoints
//
//	POST /mcp          JSON-RPC endpoint (also served on /)
//	GET  /health       liveness, always "OK"
//	GET  /health/ready readiness, pings the query executor
//
// # Lifecycle
//
//	gw, err := gateway.New(cfg, logger)
//	if err != nil {
//		return err
//	}
//	return gw.Run(ctx) // blocks until ctx is cancelled, then shuts down
package gateway
