// ABOUTME: MCP-compatible HTTP endpoint that hands JSON-RPC bodies to the router.
// ABOUTME: Every JSON-RPC outcome is written with HTTP 200; CORS headers go on every response.

package mcp

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// MaxRequestBodySize is the default maximum request body size (1MB).
const MaxRequestBodySize = 1 << 20

// ServerConfig holds configuration for the MCP HTTP endpoint.
type ServerConfig struct {
	Router       *Router
	Logger       *slog.Logger
	CORSOrigin   string
	MaxBodyBytes int64
}

// Server exposes a Router over HTTP POST.
type Server struct {
	router       *Router
	logger       *slog.Logger
	corsOrigin   string
	maxBodyBytes int64
}

// NewServer creates a new MCP HTTP endpoint.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Router == nil {
		return nil, errors.New("router is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = MaxRequestBodySize
	}
	origin := cfg.CORSOrigin
	if origin == "" {
		origin = "*"
	}

	return &Server{
		router:       cfg.Router,
		logger:       logger,
		corsOrigin:   origin,
		maxBodyBytes: maxBody,
	}, nil
}

// RegisterRoutes registers the MCP endpoint on /mcp and on the bare root.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/mcp", s.ServeHTTP)
	mux.HandleFunc("/{$}", s.ServeHTTP)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.setCORSHeaders(w)

	switch r.Method {
	case http.MethodPost:
		s.handlePost(w, r)
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "POST, OPTIONS")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) setCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", s.corsOrigin)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Mcp-Protocol-Version")
}

// handlePost processes JSON-RPC messages sent via HTTP POST.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, s.maxBodyBytes+1))
	if err != nil {
		s.sendJSONRPCError(w, nil, JSONRPCParseError, "Parse error")
		return
	}
	if int64(len(body)) > s.maxBodyBytes {
		s.sendJSONRPCError(w, nil, JSONRPCInvalidRequest, "Invalid request: body too large")
		return
	}

	req, perr := ParseRequest(body)
	if perr != nil {
		s.logger.Debug("rejected unparsable request", "bytes", len(body))
		s.sendResponse(w, errorResponse(nil, perr))
		return
	}

	if IsNotification(req) {
		s.logger.Debug("received notification", "method", req.Method)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	resp := s.router.Dispatch(r.Context(), req)
	if resp.Error != nil {
		s.logger.Debug("request failed",
			"method", req.Method,
			"code", resp.Error.Code,
			"message", resp.Error.Message,
			"duration", time.Since(start),
		)
	} else {
		s.logger.Debug("request served", "method", req.Method, "duration", time.Since(start))
	}
	s.sendResponse(w, resp)
}

func (s *Server) sendJSONRPCError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	s.sendResponse(w, errorResponse(id, NewError(code, message)))
}

func (s *Server) sendResponse(w http.ResponseWriter, resp JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("failed to encode JSON-RPC response", "error", err)
	}
}
