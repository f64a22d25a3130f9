package server

import (
	"context"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/didagoals/internal/instrumentation"
	"github.com/teemow/didagoals/internal/logging"
)

// HTTPServerConfig configures HTTPServer.
type HTTPServerConfig struct {
	Addr string
	// APIKey guards /mcp when set.
	APIKey  string
	Health  *HealthChecker
	Metrics *instrumentation.Metrics
	Logger  logging.Logger
}

// HTTPServer serves the MCP streamable-HTTP transport and health probes.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	config     HTTPServerConfig
	sessions   *SessionIDManager
	httpServer *http.Server
}

// NewHTTPServer wraps mcpSrv.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, config HTTPServerConfig) *HTTPServer {
	if config.Logger == nil {
		config.Logger = logging.DefaultLogger()
	}
	if config.Health == nil {
		config.Health = NewHealthChecker(nil)
	}

	s := &HTTPServer{
		mcpServer: mcpSrv,
		config:    config,
		sessions:  NewSessionIDManager(config.Logger),
	}
	s.httpServer = &http.Server{
		Addr:              config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the routing handler with authentication and HTTP metrics
// applied.
func (s *HTTPServer) Handler() http.Handler {
	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(PathMCP),
		mcpserver.WithSessionIdManager(s.sessions),
	)

	mux := http.NewServeMux()
	mux.Handle(PathMCP, RequireAPIKey(s.config.APIKey, s.config.Logger)(streamable))
	s.config.Health.RegisterHealthEndpoints(mux)

	return RecordHTTPMetrics(s.config.Metrics)(mux)
}

// Sessions returns the session manager.
func (s *HTTPServer) Sessions() *SessionIDManager {
	return s.sessions
}

// Start listens on the configured address until Shutdown.
func (s *HTTPServer) Start() error {
	s.config.Logger.Info("starting MCP HTTP server", "addr", s.config.Addr, "auth", s.config.APIKey != "")
	return s.httpServer.ListenAndServe()
}

// Shutdown marks the server not ready, then drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.config.Health.SetReady(false)
	s.sessions.Stop()
	return s.httpServer.Shutdown(ctx)
}
