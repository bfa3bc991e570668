// ABOUTME: Tool registry and dispatcher implementing the MCP tool provider.
// ABOUTME: Handles lookup, executor availability, read-through caching and audit recording.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"

	"github.com/satriotsubasa/dataverse-mcp/internal/executor"
	"github.com/satriotsubasa/dataverse-mcp/internal/mcp"
	"github.com/satriotsubasa/dataverse-mcp/internal/query"
	"github.com/satriotsubasa/dataverse-mcp/internal/transform"
)

// Defaults for result sizes.
const (
	DefaultMaxResults = 50
	DefaultRowsTop    = 50
	DefaultCacheTTL   = 5 * time.Minute
)

// ErrServiceUnavailable is returned by every tool when no query executor is configured.
var ErrServiceUnavailable = mcp.NewError(mcp.JSONRPCInternalError, "Service unavailable: query executor is not configured")

// Cache is the read-through cache used for metadata tools.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

// Record describes one completed tool call.
type Record struct {
	RequestID    string
	Tool         string
	Arguments    json.RawMessage
	Duration     time.Duration
	Cached       bool
	ErrorCode    int
	ErrorMessage string
}

// Recorder persists tool call records.
type Recorder interface {
	RecordToolCall(ctx context.Context, rec Record) error
}

// Config holds the dependencies of a Dispatcher. Executor, Cache and
// Recorder are optional.
type Config struct {
	Executor   executor.QueryExecutor
	Cache      Cache
	CacheTTL   time.Duration
	Recorder   Recorder
	Target     query.Target
	Mapping    *query.FieldMapping
	Entity     transform.Entity
	MaxResults int
	Logger     *slog.Logger
}

type handlerFunc func(ctx context.Context, exec executor.QueryExecutor, args Arguments) (any, error)

type tool struct {
	info      mcp.MCPToolInfo
	cacheable bool
	handler   handlerFunc
}

// Dispatcher resolves tool names to handlers.
type Dispatcher struct {
	exec       executor.QueryExecutor
	cache      Cache
	cacheTTL   time.Duration
	recorder   Recorder
	target     query.Target
	mapping    *query.FieldMapping
	entity     transform.Entity
	maxResults int
	logger     *slog.Logger

	tools []tool
	index map[string]int
}

// NewDispatcher creates a dispatcher with every tool registered.
func NewDispatcher(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if maxResults > query.MaxRows {
		maxResults = query.MaxRows
	}
	mapping := cfg.Mapping
	if mapping == nil {
		mapping = query.NewFieldMapping(cfg.Entity.NameColumn, cfg.Entity.CodeColumn, cfg.Entity.DescriptionColumn, nil)
	}

	d := &Dispatcher{
		exec:       cfg.Executor,
		cache:      cfg.Cache,
		cacheTTL:   ttl,
		recorder:   cfg.Recorder,
		target:     cfg.Target,
		mapping:    mapping,
		entity:     cfg.Entity,
		maxResults: maxResults,
		logger:     logger,
		index:      make(map[string]int),
	}

	d.register(ToolSearch, searchDescription(mapping.Prefixes()),
		searchSchema(maxResults), false, d.search)
	d.register(ToolFetch,
		"Fetch a single record by id. Returns null when the record does not exist or is highly confidential.",
		fetchSchema(), false, d.fetch)
	d.register(ToolExecuteSQL,
		"Execute a read-only SQL query and return its rows.",
		executeSQLSchema(), false, d.executeSQL)
	d.register(ToolGetMetadataForAllTables,
		"List all tables and views.",
		objectSchema(nil, nil), true, d.allTablesMetadata)
	d.register(ToolGetMetadataByTableName,
		"Describe one table: its definition, column count and primary key.",
		tableNameSchema(), true, d.tableMetadata)
	d.register(ToolGetFieldMetadataByTableName,
		"Describe the columns of a table, optionally limited to named fields.",
		fieldMetadataSchema(), true, d.fieldMetadata)
	d.register(ToolGetRowsForTable,
		"Retrieve rows from a table with optional field selection, filter, sort and row limit.",
		rowsSchema(), false, d.rowsForTable)
	d.register(ToolConvertFetchXMLToSQL,
		"Translate a FetchXML query into parameterised SQL without executing it.",
		fetchXMLSchema(), false, d.convertFetchXML)

	return d
}

func (d *Dispatcher) register(name, description string, schema *jsonschema.Schema, cacheable bool, h handlerFunc) {
	d.index[name] = len(d.tools)
	d.tools = append(d.tools, tool{
		info:      mcp.MCPToolInfo{Name: name, Description: description, InputSchema: schema},
		cacheable: cacheable,
		handler:   h,
	})
}

// Tools returns the tool descriptors in registration order.
func (d *Dispatcher) Tools() []mcp.MCPToolInfo {
	out := make([]mcp.MCPToolInfo, len(d.tools))
	for i, t := range d.tools {
		out[i] = t.info
	}
	return out
}

// Cacheable reports whether results of the named tool may be cached.
func (d *Dispatcher) Cacheable(name string) bool {
	i, ok := d.index[name]
	return ok && d.tools[i].cacheable
}

// Call decodes raw arguments and invokes the named tool.
func (d *Dispatcher) Call(ctx context.Context, name string, raw json.RawMessage) (any, error) {
	if _, ok := d.index[name]; !ok {
		return nil, mcp.Errorf(mcp.JSONRPCMethodNotFound, "Unknown tool: %s", name)
	}
	args, err := DecodeArguments(raw)
	if err != nil {
		return nil, err
	}
	return d.Invoke(ctx, name, args)
}

// Invoke runs the named tool with already decoded arguments.
func (d *Dispatcher) Invoke(ctx context.Context, name string, args Arguments) (any, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, mcp.Errorf(mcp.JSONRPCMethodNotFound, "Unknown tool: %s", name)
	}
	t := d.tools[i]

	requestID := uuid.NewString()
	start := time.Now()
	logger := d.logger.With("tool_name", name, "request_id", requestID)

	if d.exec == nil {
		d.record(ctx, requestID, name, args, start, false, ErrServiceUnavailable)
		return nil, ErrServiceUnavailable
	}

	var key string
	if t.cacheable && d.cache != nil {
		key = CacheKey(name, args)
		if cached, hit := d.cache.Get(key); hit {
			logger.Debug("tool cache hit", "cache_key", key)
			d.record(ctx, requestID, name, args, start, true, nil)
			return cached, nil
		}
	}

	logger.Debug("tool call started")
	result, err := t.handler(ctx, d.exec, args)
	if err != nil {
		rpcErr := asToolError(err)
		logger.Debug("tool call failed", "code", rpcErr.Code, "error", rpcErr.Message, "duration", time.Since(start))
		d.record(ctx, requestID, name, args, start, false, rpcErr)
		return nil, rpcErr
	}

	if key != "" {
		d.cache.Set(key, result, d.cacheTTL)
	}
	logger.Debug("tool call completed", "duration", time.Since(start))
	d.record(ctx, requestID, name, args, start, false, nil)
	return result, nil
}

func (d *Dispatcher) record(ctx context.Context, requestID, name string, args Arguments, start time.Time, cached bool, rpcErr *mcp.JSONRPCError) {
	if d.recorder == nil {
		return
	}

	rec := Record{
		RequestID: requestID,
		Tool:      name,
		Duration:  time.Since(start),
		Cached:    cached,
	}
	if data, err := json.Marshal(args); err == nil {
		rec.Arguments = data
	}
	if rpcErr != nil {
		rec.ErrorCode = rpcErr.Code
		rec.ErrorMessage = rpcErr.Message
	}

	// Audit failures never fail the call
	if err := d.recorder.RecordToolCall(context.WithoutCancel(ctx), rec); err != nil {
		d.logger.Warn("failed to record tool call", "tool_name", name, "request_id", requestID, "error", err)
	}
}

func asToolError(err error) *mcp.JSONRPCError {
	var rpcErr *mcp.JSONRPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return mcp.NewError(mcp.JSONRPCInternalError, err.Error())
}

// invalidParams wraps a validation failure as -32602.
func invalidParams(err error) *mcp.JSONRPCError {
	return mcp.NewError(mcp.JSONRPCInvalidParams, "Invalid params: "+err.Error())
}

// failed wraps a collaborator failure as -32603 with a tool-specific prefix.
func failed(prefix string, err error) *mcp.JSONRPCError {
	return mcp.NewError(mcp.JSONRPCInternalError, prefix+detail(err))
}

// detail returns the collaborator's own message, without the statement text.
func detail(err error) string {
	var qe *executor.QueryError
	if errors.As(err, &qe) {
		return qe.Detail
	}
	return err.Error()
}

// isInvalidInput reports whether err came from validating caller input.
func isInvalidInput(err error) bool {
	return errors.Is(err, query.ErrEmptyQuery) ||
		errors.Is(err, query.ErrNotReadOnly) ||
		errors.Is(err, query.ErrInvalidIdentifier) ||
		errors.Is(err, query.ErrInvalidFetchXML)
}
