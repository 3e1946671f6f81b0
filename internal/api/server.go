// Package api hosts the read-only HTTP front end for the twin engine.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/k1lightwave/k1-dt/internal/twin"
)

// Default listen address.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 8000
)

// Options configures the HTTP server.
type Options struct {
	// Host defaults to DefaultHost when empty.
	Host string

	// Port 0 binds an ephemeral port (used by tests). The daemon's
	// config layer supplies DefaultPort.
	Port int

	// ShutdownTimeout bounds the graceful drain in Stop. Defaults to
	// 5 seconds.
	ShutdownTimeout time.Duration
}

// Server hosts the twin API: a closed route table of three GET
// endpoints plus a JSON 404 for everything else.
//
// Connection handling is the Go host default: one goroutine per
// inbound connection, unbounded. A production variant would cap
// concurrent connections or front the listener with a request-scoped
// worker pool. No request timeouts are set.
type Server struct {
	http   *http.Server
	engine *twin.Engine
	opts   Options

	ln net.Listener
}

// statusResponse is the liveness body for "/" and "/health".
type statusResponse struct {
	Status string `json:"status"`
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// NewServer constructs a server bound to the provided engine. The
// caller loads assets once before serving; the server itself never
// mutates engine state. Listening does not start until Start is
// called.
func NewServer(engine *twin.Engine, opts Options) *Server {
	if engine == nil {
		panic("api.NewServer: engine is nil")
	}
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}

	mux := http.NewServeMux()
	s := &Server{
		engine: engine,
		opts:   opts,
		http: &http.Server{
			Handler:  withRequestLog(mux),
			ErrorLog: slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
		},
	}

	// Routes. The mux routes every unregistered path to "/", where
	// handleIndex answers with the 404 body.
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/state", s.handleState)

	return s
}

// Start binds the listener and begins serving in a background
// goroutine. It returns once the listener is bound, so Addr is valid
// immediately after. Serve errors other than graceful closure are
// logged, not returned.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.ln = ln

	go func() {
		slog.Info("api listening", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api serve failed", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listen address. Empty before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop gracefully shuts down the server, waiting up to ShutdownTimeout
// for in-flight requests to drain.
func (s *Server) Stop(ctx context.Context) error {
	timeout := s.opts.ShutdownTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.http.Shutdown(ctx)
}

// Handler returns the middleware-wrapped handler, for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// handleIndex serves the liveness body on exactly "/". Every
// unregistered path falls through the mux to this handler and gets the
// 404 body.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// handleHealth is the liveness endpoint. It touches no engine state:
// health checks never tick.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// handleState returns the current snapshot. Each request observes one
// consistent pair; readers never see a torn tick/assets combination.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, s.engine.State())
}

// withRequestLog tags each request with a UUIDv7 id and logs it at
// debug level.
func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.Must(uuid.NewV7()).String()
		next.ServeHTTP(w, r)
		slog.Debug("request handled",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// writeJSON marshals v up front so Content-Length is the exact encoded
// byte length, then writes the UTF-8 body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
