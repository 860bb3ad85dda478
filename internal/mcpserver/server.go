// Package mcpserver assembles the MCP server and runs it over the
// configured transport.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/internal/config"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/internal/prompts"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/internal/resources"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/internal/tools"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/logging"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/metrics"
)

const (
	Name    = "Vectra On-Premise MCP Server"
	Version = "1.0.0"

	instructions = "This server provides access to Vectra AI On-Premise security detection and investigation capabilities."

	// HTTP endpoints.
	SSEPath     = "/sse"
	MessagePath = "/message"
	MCPPath     = "/mcp"
	MetricsPath = "/metrics"
	HealthPath  = "/health"

	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Server is the assembled MCP server.
type Server struct {
	cfg    *config.Config
	mcp    *server.MCPServer
	logger zerolog.Logger

	toolCount int
}

// New creates the server and registers every tool, resource and prompt.
func New(cfg *config.Config, api tools.API) *Server {
	s := &Server{
		cfg: cfg,
		mcp: server.NewMCPServer(Name, Version,
			server.WithInstructions(instructions),
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, true),
			server.WithPromptCapabilities(true),
			server.WithRecovery(),
		),
		logger: logging.NewLogger("mcpserver"),
	}

	s.toolCount = tools.New(api).Register(s.mcp, resources.ReadTool())
	nResources := resources.Register(s.mcp)
	nPrompts := prompts.Register(s.mcp)

	s.logger.Info().
		Int("tools", s.toolCount).
		Int("resources", nResources).
		Int("prompts", nPrompts).
		Msg("Registered MCP capabilities")

	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ToolCount returns the number of registered tools.
func (s *Server) ToolCount() int {
	return s.toolCount
}

// Run serves the configured transport until ctx is cancelled or the
// transport fails.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	s.logger.Info().
		Str("transport", s.cfg.Transport).
		Str("vectra_url", s.cfg.BaseURL).
		Msg("Starting Vectra MCP server")

	switch s.cfg.Transport {
	case config.TransportStdio:
		return s.ServeStdio(ctx, stdin, stdout)
	case config.TransportSSE:
		sse := s.sseServer()
		return s.serveHTTP(ctx, s.httpHandler(sse), sse.Shutdown)
	case config.TransportStreamableHTTP:
		streamable := s.streamableServer()
		return s.serveHTTP(ctx, s.httpHandler(streamable), streamable.Shutdown)
	default:
		return fmt.Errorf("unsupported transport: %s", s.cfg.Transport)
	}
}

// ServeStdio serves MCP over line-delimited JSON-RPC on in and out.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	err := server.NewStdioServer(s.mcp).Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

// mcpHandler is an MCP HTTP transport that can be mounted on a mux.
type mcpHandler interface {
	http.Handler
	Shutdown(ctx context.Context) error
}

func (s *Server) sseServer() *server.SSEServer {
	return server.NewSSEServer(s.mcp,
		server.WithBaseURL(fmt.Sprintf("http://%s", s.cfg.Addr())),
		server.WithSSEEndpoint(SSEPath),
		server.WithMessageEndpoint(MessagePath),
	)
}

func (s *Server) streamableServer() *server.StreamableHTTPServer {
	return server.NewStreamableHTTPServer(s.mcp, server.WithEndpointPath(MCPPath))
}

// httpHandler mounts the MCP transport next to the metrics and health
// endpoints.
func (s *Server) httpHandler(transport mcpHandler) http.Handler {
	mux := http.NewServeMux()
	switch t := transport.(type) {
	case *server.SSEServer:
		mux.Handle(SSEPath, t.SSEHandler())
		mux.Handle(MessagePath, t.MessageHandler())
	default:
		mux.Handle(MCPPath, t)
	}
	mux.Handle(MetricsPath, metrics.Handler())
	mux.HandleFunc(HealthPath, healthHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// serveHTTP listens on the configured address and shuts down gracefully
// once ctx is done.
func (s *Server) serveHTTP(ctx context.Context, handler http.Handler, shutdownTransport func(context.Context) error) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := shutdownTransport(shutdownCtx); err != nil {
		s.logger.Warn().Err(err).Msg("MCP transport shutdown failed")
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
