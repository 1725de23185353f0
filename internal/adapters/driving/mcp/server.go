package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is the default version reported to MCP clients.
const Version = "0.1.0"

// shutdownTimeout bounds how long RunHTTP waits for in-flight sessions.
const shutdownTimeout = 5 * time.Second

// Server exposes the notice question and alert engine to MCP clients.
type Server struct {
	ports        *Ports
	server       *mcp.Server
	version      string
	alertChannel string
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported in the initialize handshake.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// WithAlertChannel names the channel that receives change alerts, so
// clients can tell users where subscriptions report.
func WithAlertChannel(channel string) Option {
	return func(s *Server) {
		s.alertChannel = channel
	}
}

// NewServer creates an MCP server over ports.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports, version: Version}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(
		&mcp.Implementation{Name: "noticealert", Version: s.version},
		&mcp.ServerOptions{Instructions: s.instructions()},
	)
	s.registerTools()
	s.registerResources()

	return s, nil
}

// instructions tells the client what the notices are and how standing
// queries behave.
func (s *Server) instructions() string {
	var b strings.Builder
	b.WriteString("Answers questions about pipeline operator notices such as capacity constraints, ")
	b.WriteString("outages and maintenance, using only the indexed notice files.\n")
	b.WriteString("Use ask for one-off questions. Use subscribe, or ask with a phrase like \"alert me\", ")
	b.WriteString("to keep a question as a standing query: it is re-answered whenever a notice changes")
	if s.alertChannel != "" {
		fmt.Fprintf(&b, " and materially different answers are posted to %s", s.alertChannel)
	}
	b.WriteString(".\nA result with state \"failed\" was not answered and registered nothing; retry later.\n")
	b.WriteString("Read noticealert://alerts for standing queries and noticealert://status for index counters.")
	return b.String()
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP transport for the server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// httpHandler mounts the MCP transport at / and /mcp next to a
// readiness check reporting index progress.
func (s *Server) httpHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", s.Handler())
	mux.Handle("/mcp", s.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		body := map[string]any{"status": "ok", "version": s.version}
		if s.ports.Ingest != nil {
			body["index"] = s.ports.Ingest.Status()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body) //nolint:errcheck
	})
	return mux
}

// RunHTTP serves streamable HTTP on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.httpHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
