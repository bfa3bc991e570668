// ABOUTME: Gateway orchestrator that wires executor, cache, audit store and MCP endpoint
// ABOUTME: Manages the HTTP server lifecycle and health endpoints

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/satriotsubasa/dataverse-mcp/internal/cache"
	"github.com/satriotsubasa/dataverse-mcp/internal/config"
	"github.com/satriotsubasa/dataverse-mcp/internal/executor"
	"github.com/satriotsubasa/dataverse-mcp/internal/mcp"
	"github.com/satriotsubasa/dataverse-mcp/internal/query"
	"github.com/satriotsubasa/dataverse-mcp/internal/store"
	"github.com/satriotsubasa/dataverse-mcp/internal/tools"
	"github.com/satriotsubasa/dataverse-mcp/internal/transform"
)

// connectTimeout bounds the initial connection to the backing store.
const connectTimeout = 10 * time.Second

// Gateway orchestrates the dataverse-mcp server components.
type Gateway struct {
	config     *config.Config
	logger     *slog.Logger
	executor   *executor.SQLExecutor
	cache      *cache.Cache
	audit      *store.Store
	dispatcher *tools.Dispatcher
	router     *mcp.Router
	httpServer *http.Server
}

// New creates a new Gateway instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	gw := &Gateway{
		config: cfg,
		logger: logger.With("component", "gateway"),
	}

	gw.executor = openExecutor(cfg, logger)

	if cfg.Cache.IsEnabled() {
		gw.cache = cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	}

	if cfg.Audit.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		auditStore, err := store.Open(ctx, cfg.Audit.Path, logger.With("component", "audit"))
		if err != nil {
			gw.closeComponents()
			return nil, fmt.Errorf("opening audit store: %w", err)
		}
		gw.audit = auditStore
	}

	gw.dispatcher = tools.NewDispatcher(gw.dispatcherConfig(logger))
	gw.router = mcp.NewRouter(mcp.RouterConfig{
		Tools:                  gw.dispatcher,
		ServerName:             cfg.MCP.ServerName,
		ServerVersion:          cfg.MCP.ServerVersion,
		DefaultProtocolVersion: cfg.MCP.ProtocolVersion,
		Logger:                 logger.With("component", "mcp"),
	})

	mcpServer, err := mcp.NewServer(mcp.ServerConfig{
		Router:       gw.router,
		Logger:       logger.With("component", "mcp-http"),
		CORSOrigin:   cfg.Server.CORSOrigin,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})
	if err != nil {
		gw.closeComponents()
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("GET /health", gw.handleHealth)
	mux.HandleFunc("GET /health/ready", gw.handleReady)

	mcpServer.RegisterRoutes(mux)

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// openExecutor connects to the backing store. It returns nil when no DSN
// is configured or the connection fails.
func openExecutor(cfg *config.Config, logger *slog.Logger) *executor.SQLExecutor {
	if cfg.Database.DSN == "" {
		logger.Warn("no database dsn configured, tools will report the service as unavailable")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	ex, err := executor.Open(ctx, executor.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		AuthToken:    cfg.Database.AuthToken,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		QueryTimeout: cfg.Database.QueryTimeout,
		Logger:       logger.With("component", "executor"),
	})
	if err != nil {
		logger.Error("failed to connect to database, tools will report the service as unavailable",
			"driver", cfg.Database.Driver,
			"error", err,
		)
		return nil
	}

	logger.Info("connected to database", "driver", cfg.Database.Driver, "dialect", ex.Dialect())
	return ex
}

func (g *Gateway) dispatcherConfig(logger *slog.Logger) tools.Config {
	search := g.config.Search

	cfg := tools.Config{
		CacheTTL: g.config.Cache.TTL,
		Target: query.Target{
			Table:              search.Table,
			IDColumn:           search.IDColumn,
			ConfidentialColumn: search.ConfidentialColumn,
			DefaultColumns:     search.DefaultColumns,
		},
		Mapping: query.NewFieldMapping(search.NameColumn, search.CodeColumn, search.DescriptionColumn, search.FieldAliases),
		Entity: transform.Entity{
			Kind:              search.Kind,
			IDColumn:          search.IDColumn,
			NameColumn:        search.NameColumn,
			CodeColumn:        search.CodeColumn,
			DescriptionColumn: search.DescriptionColumn,
			ServiceURL:        search.ServiceURL,
			Classification:    search.Classification,
		},
		MaxResults: search.MaxResults,
		Logger:     logger.With("component", "tools"),
	}

	// Optional collaborators stay nil interfaces when unset
	if g.executor != nil {
		cfg.Executor = g.executor
	}
	if g.cache != nil {
		cfg.Cache = g.cache
	}
	if g.audit != nil {
		cfg.Recorder = &auditRecorder{store: g.audit}
	}
	return cfg
}

// Handler returns the HTTP handler serving every endpoint.
func (g *Gateway) Handler() http.Handler {
	return g.httpServer.Handler
}

// Router returns the JSON-RPC router.
func (g *Gateway) Router() *mcp.Router {
	return g.router
}

// Dispatcher returns the tool dispatcher.
func (g *Gateway) Dispatcher() *tools.Dispatcher {
	return g.dispatcher
}

// AuditStore returns the audit store, or nil when auditing is disabled.
func (g *Gateway) AuditStore() *store.Store {
	return g.audit
}

// Run starts the HTTP server and blocks until ctx is cancelled or the
// server fails, then shuts everything down.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", g.httpServer.Addr)
	if err != nil {
		g.closeComponents()
		return fmt.Errorf("listening on %s: %w", g.httpServer.Addr, err)
	}
	return g.Serve(ctx, ln)
}

// Serve runs the HTTP server on ln until ctx is cancelled or the server fails.
func (g *Gateway) Serve(ctx context.Context, ln net.Listener) error {
	g.logger.Info("starting gateway", "http_addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
		close(errCh)
	}()

	serverErr := g.waitForShutdownSignal(ctx, errCh)
	shutdownErr := g.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// waitForShutdownSignal waits for context cancellation or server error.
func (g *Gateway) waitForShutdownSignal(ctx context.Context, errCh <-chan error) error {
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
		return nil
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		g.logger.Error("server error", "error", err)
		return err
	}
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// The caller's context is usually already cancelled at this point.
func (g *Gateway) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return g.Shutdown(ctx)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown stops the HTTP server and releases every component.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))
	errs = append(errs, g.closeComponents()...)

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}

// closeComponents closes optional components that may be nil.
func (g *Gateway) closeComponents() []error {
	var errs []error
	if g.cache != nil {
		g.cache.Close()
		g.cache = nil
	}
	if g.executor != nil {
		errs = appendCloseError(errs, "executor close", g.executor.Close())
	}
	if g.audit != nil {
		errs = appendCloseError(errs, "audit store close", g.audit.Close())
		g.audit = nil
	}
	return errs
}

// handleHealth returns 200 OK if the server is alive.
func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the query executor is configured and reachable.
func (g *Gateway) handleReady(w http.ResponseWriter, r *http.Request) {
	if g.executor == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("query executor not configured"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := g.executor.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprintf(w, "database unreachable: %v", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%s)", g.executor.Dialect())
}
