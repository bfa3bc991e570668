// Package mcp implements the Model Context Protocol surface of dataverse-mcp.
//
// # Overview
//
// MCP is JSON-RPC 2.0 over HTTP POST. The package is split in two layers:
//
//   - Router decodes a request body and dispatches initialize, tools/list
//     and tools/call. It has no knowledge of HTTP and is used directly by
//     the CLI.
//   - Server adapts the router to net/http, applies CORS headers and the
//     request body limit, and answers notifications with 202.
//
// # Error Handling
//
// Every JSON-RPC failure is returned as HTTP 200 with an error object:
//
//	-32700  body is not a JSON object (id is null)
//	-32600  body too large
//	-32601  unknown method or unknown tool
//	-32602  missing or invalid params and arguments
//	-32603  tool failure or unexpected panic
//
// The request id is echoed verbatim, including numeric and string ids. A
// missing id is written as null.
//
// # Tools
//
// Tools are supplied by a ToolProvider. Returning a *JSONRPCError from
// Call selects the error code; any other error becomes -32603.
package mcp
