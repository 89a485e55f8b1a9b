// Package httpserver serves the MCP tool server over HTTP.
//
// The streamable HTTP endpoint and the legacy SSE endpoints are provided by mcp-go;
// this package adds CORS, a health check and API key authentication in front of them.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/sabbour/worldtime-mcp-go/internal/auth"
)

const (
	DefaultStreamEndpoint  = "/mcp"
	DefaultSSEEndpoint     = "/sse"
	DefaultMessageEndpoint = "/message"
)

// Options configure the HTTP server.
type Options struct {
	Host   string
	Port   int
	APIKey string
	// MCP is the tool server exposed on the endpoints below.
	MCP            *server.MCPServer
	StreamEndpoint string
	// Stateless disables mcp-session-id tracking on the streamable endpoint.
	Stateless bool
	// DisableSSE removes the legacy SSE and message endpoints.
	DisableSSE bool
	Logger     *log.Logger
	// Debug receives per-request traces when set.
	Debug *log.Logger
}

// Server represents the running HTTP server.
type Server struct {
	server   *http.Server
	listener net.Listener
	opts     Options
	auth     *auth.Middleware
	stream   http.Handler
	sse      *server.SSEServer
	errs     chan error
}

// New builds the server without binding a port. Handler exposes it for tests.
func New(opts Options) (*Server, error) {
	if opts.MCP == nil {
		return nil, errors.New("httpserver: MCP server not configured")
	}
	if opts.StreamEndpoint == "" {
		opts.StreamEndpoint = DefaultStreamEndpoint
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &Server{
		opts: opts,
		auth: auth.New(auth.Config{APIKey: opts.APIKey}),
		stream: server.NewStreamableHTTPServer(opts.MCP,
			server.WithEndpointPath(opts.StreamEndpoint),
			server.WithStateLess(opts.Stateless),
		),
		errs: make(chan error, 1),
	}
	if !opts.DisableSSE {
		s.sse = server.NewSSEServer(opts.MCP,
			server.WithSSEEndpoint(DefaultSSEEndpoint),
			server.WithMessageEndpoint(DefaultMessageEndpoint),
		)
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Start binds the configured address and serves in the background.
func Start(opts Options) (*Server, error) {
	s, err := New(opts)
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(opts.Host, fmt.Sprint(opts.Port)))
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	s.listener = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.opts.Logger.Printf("ERROR: http server: %v", err)
			s.errs <- err
		}
		close(s.errs)
	}()

	return s, nil
}

// Addr returns the bound address, which differs from the configured one when port 0 was asked for.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Errors yields the error that stopped the server, if any, and is closed when it stops.
func (s *Server) Errors() <-chan error {
	return s.errs
}

// Close gracefully shuts down the server.
func (s *Server) Close(ctx context.Context) error {
	if s.sse != nil {
		if err := s.sse.Shutdown(ctx); err != nil {
			s.debugf("SSE shutdown: %v", err)
		}
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the root handler with CORS, health check, auth and routing applied.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handle)
}

func (s *Server) debugf(format string, args ...any) {
	if s.opts.Debug != nil {
		s.opts.Debug.Printf("DEBUG: "+format, args...)
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.debugf("Incoming request: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, DELETE")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, Mcp-Session-Id, Mcp-Protocol-Version")
	w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if r.URL.Path == "/ping" && r.Method == http.MethodGet {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
		return
	}

	next := s.route(r.URL.Path)
	if next == nil {
		s.debugf("No matching endpoint for %s", r.URL.Path)
		http.NotFound(w, r)
		return
	}
	s.auth.Wrap(next).ServeHTTP(w, r)
}

func (s *Server) route(path string) http.Handler {
	switch {
	case path == s.opts.StreamEndpoint:
		return s.stream
	case s.sse != nil && (path == DefaultSSEEndpoint || strings.HasPrefix(path, DefaultMessageEndpoint)):
		return s.sse
	default:
		return nil
	}
}
