// ABOUTME: JSON-RPC 2.0 envelope types, error codes and MCP payload types.
// ABOUTME: Responses always carry exactly one of result or error and a null id when none was given.

package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// JSONRPCVersion is the only protocol version written in responses.
const JSONRPCVersion = "2.0"

// Standard JSON-RPC error codes
const (
	JSONRPCParseError     = -32700
	JSONRPCInvalidRequest = -32600
	JSONRPCMethodNotFound = -32601
	JSONRPCInvalidParams  = -32602
	JSONRPCInternalError  = -32603
)

// MCP methods served by the router.
const (
	MethodInitialize = "initialize"
	MethodToolsList  = "tools/list"
	MethodToolsCall  = "tools/call"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request. ProtocolVersion is
// accepted at the top level as well as inside initialize params.
type JSONRPCRequest struct {
	JSONRPC         string          `json:"jsonrpc"`
	ID              json.RawMessage `json:"id,omitempty"`
	Method          string          `json:"method"`
	Params          json.RawMessage `json:"params,omitempty"`
	ProtocolVersion string          `json:"protocolVersion,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// MarshalJSON writes exactly one of result or error. A missing id is written
// as null and a nil result as null.
func (r JSONRPCResponse) MarshalJSON() ([]byte, error) {
	id := r.ID
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	version := r.JSONRPC
	if version == "" {
		version = JSONRPCVersion
	}

	if r.Error != nil {
		return json.Marshal(struct {
			JSONRPC string          `json:"jsonrpc"`
			ID      json.RawMessage `json:"id"`
			Error   *JSONRPCError   `json:"error"`
		}{version, id, r.Error})
	}
	return json.Marshal(struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      json.RawMessage `json:"id"`
		Result  any             `json:"result"`
	}{version, id, r.Result})
}

// JSONRPCError represents a JSON-RPC 2.0 error object. It doubles as a Go
// error so tool handlers can return it directly.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// NewError returns a protocol error with the given code and message.
func NewError(code int, message string) *JSONRPCError {
	return &JSONRPCError{Code: code, Message: message}
}

// Errorf returns a protocol error with a formatted message.
func Errorf(code int, format string, args ...any) *JSONRPCError {
	return &JSONRPCError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// MCP-specific types

// MCPToolInfo represents an MCP tool definition.
type MCPToolInfo struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

// MCPListToolsResult is the result for tools/list.
type MCPListToolsResult struct {
	Tools []MCPToolInfo `json:"tools"`
}

// MCPCallToolParams are the params for tools/call.
type MCPCallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// MCPInitializeParams are the parts of initialize params the server reads.
type MCPInitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	ClientInfo      map[string]any `json:"clientInfo,omitempty"`
}

// MCPInitializeResult is the result for initialize.
type MCPInitializeResult struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Capabilities    MCPCapabilities `json:"capabilities"`
	ServerInfo      MCPServerInfo   `json:"serverInfo"`
}

// MCPCapabilities advertises the server's features.
type MCPCapabilities struct {
	Tools MCPToolsCapability `json:"tools"`
}

// MCPToolsCapability describes tool support.
type MCPToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// MCPServerInfo identifies the server.
type MCPServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
