// ABOUTME: Transport-independent JSON-RPC router for initialize, tools/list and tools/call.
// ABOUTME: Converts tool failures into protocol errors and never lets a panic escape.

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// DefaultProtocolVersion is used when initialize does not name a version.
const DefaultProtocolVersion = "2024-11-05"

// ToolProvider supplies the tool catalogue and executes tool calls.
// Call returns a *JSONRPCError to select a specific code; any other error
// is reported as an internal error.
type ToolProvider interface {
	Tools() []MCPToolInfo
	Call(ctx context.Context, name string, args json.RawMessage) (any, error)
}

// RouterConfig holds the dependencies for a Router.
type RouterConfig struct {
	Tools                  ToolProvider
	ServerName             string
	ServerVersion          string
	DefaultProtocolVersion string
	Logger                 *slog.Logger
}

// Router dispatches decoded JSON-RPC requests to MCP methods.
type Router struct {
	tools           ToolProvider
	serverName      string
	serverVersion   string
	protocolVersion string
	logger          *slog.Logger
}

// NewRouter creates a router. A nil tool provider yields an empty catalogue.
func NewRouter(cfg RouterConfig) *Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	version := cfg.DefaultProtocolVersion
	if version == "" {
		version = DefaultProtocolVersion
	}
	name := cfg.ServerName
	if name == "" {
		name = "dataverse-mcp"
	}
	serverVersion := cfg.ServerVersion
	if serverVersion == "" {
		serverVersion = "dev"
	}
	return &Router{
		tools:           cfg.Tools,
		serverName:      name,
		serverVersion:   serverVersion,
		protocolVersion: version,
		logger:          logger,
	}
}

// Handle parses a raw request body and returns the response to send.
// It always produces a response; transport concerns such as notifications
// are left to the caller.
func (r *Router) Handle(ctx context.Context, body []byte) JSONRPCResponse {
	req, perr := ParseRequest(body)
	if perr != nil {
		return errorResponse(nil, perr)
	}
	return r.Dispatch(ctx, req)
}

// ParseRequest decodes a request body. Anything that is not a JSON object
// is a parse error.
func ParseRequest(body []byte) (*JSONRPCRequest, *JSONRPCError) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' || !utf8.Valid(trimmed) {
		return nil, NewError(JSONRPCParseError, "Parse error")
	}
	var req JSONRPCRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, NewError(JSONRPCParseError, "Parse error")
	}
	return &req, nil
}

// IsNotification reports whether req expects no response.
func IsNotification(req *JSONRPCRequest) bool {
	return len(req.ID) == 0 && strings.HasPrefix(req.Method, "notifications/")
}

// Dispatch routes an already decoded request.
func (r *Router) Dispatch(ctx context.Context, req *JSONRPCRequest) (resp JSONRPCResponse) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("panic handling request", "method", req.Method, "panic", rec)
			resp = errorResponse(req.ID, NewError(JSONRPCInternalError, "Internal error"))
		}
	}()

	switch req.Method {
	case MethodInitialize:
		return resultResponse(req.ID, r.initialize(req))
	case MethodToolsList:
		return resultResponse(req.ID, r.listTools())
	case MethodToolsCall:
		result, err := r.callTool(ctx, req)
		if err != nil {
			return errorResponse(req.ID, err)
		}
		return resultResponse(req.ID, result)
	default:
		return errorResponse(req.ID, Errorf(JSONRPCMethodNotFound, "Unknown method: %s", req.Method))
	}
}

func (r *Router) initialize(req *JSONRPCRequest) MCPInitializeResult {
	version := ""
	if len(req.Params) > 0 {
		var params MCPInitializeParams
		if err := json.Unmarshal(req.Params, &params); err == nil {
			version = params.ProtocolVersion
		}
	}
	if version == "" {
		version = req.ProtocolVersion
	}
	if version == "" {
		version = r.protocolVersion
	}

	return MCPInitializeResult{
		ProtocolVersion: version,
		Capabilities:    MCPCapabilities{Tools: MCPToolsCapability{ListChanged: false}},
		ServerInfo:      MCPServerInfo{Name: r.serverName, Version: r.serverVersion},
	}
}

func (r *Router) listTools() MCPListToolsResult {
	tools := []MCPToolInfo{}
	if r.tools != nil {
		tools = append(tools, r.tools.Tools()...)
	}
	return MCPListToolsResult{Tools: tools}
}

func (r *Router) callTool(ctx context.Context, req *JSONRPCRequest) (any, *JSONRPCError) {
	trimmed := bytes.TrimSpace(req.Params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewError(JSONRPCInvalidParams, "Invalid params: params are required")
	}

	var params MCPCallToolParams
	if err := json.Unmarshal(trimmed, &params); err != nil {
		return nil, NewError(JSONRPCInvalidParams, "Invalid params: "+err.Error())
	}
	if params.Name == "" {
		return nil, NewError(JSONRPCInvalidParams, "Invalid params: tool name is required")
	}
	if r.tools == nil {
		return nil, Errorf(JSONRPCMethodNotFound, "Unknown tool: %s", params.Name)
	}

	r.logger.Debug("tools/call", "tool_name", params.Name)

	result, err := r.tools.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		return nil, toJSONRPCError(err)
	}
	return result, nil
}

func toJSONRPCError(err error) *JSONRPCError {
	var rpcErr *JSONRPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return NewError(JSONRPCInternalError, err.Error())
}

func resultResponse(id json.RawMessage, result any) JSONRPCResponse {
	return JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: id, Result: result}
}

func errorResponse(id json.RawMessage, err *JSONRPCError) JSONRPCResponse {
	return JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: id, Error: err}
}
