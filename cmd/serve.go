package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/didagoals/internal/config"
	"github.com/teemow/didagoals/internal/events"
	"github.com/teemow/didagoals/internal/instrumentation"
	"github.com/teemow/didagoals/internal/logging"
	"github.com/teemow/didagoals/internal/progress"
	"github.com/teemow/didagoals/internal/relevance"
	"github.com/teemow/didagoals/internal/server"
	"github.com/teemow/didagoals/internal/tools/analytics_tools"
	"github.com/teemow/didagoals/internal/tools/goal_tools"
)

// Transport names accepted by --transport.
const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// serveOptions holds the serve command flags.
type serveOptions struct {
	configFile     string
	transport      string
	httpAddr       string
	debug          bool
	logLevel       string
	readOnly       bool
	metricsEnabled bool
	metricsAddr    string
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server exposing the goal and analytics tools.

Transports:
  - stdio: standard input/output (default), for local MCP clients
  - streamable-http: HTTP server with the MCP endpoint at /mcp

When server.api_key (or MCP_API_KEY) is set, HTTP clients must send it in the
x-api-key header or as a bearer token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadServeEnvVars(cmd, &opts)
			return runServe(opts)
		},
	}

	cmd.Flags().StringVar(&opts.configFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/didagoals/config.yaml or ./config.yaml)")
	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http. Can also use MCP_TRANSPORT env var.")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport). Can also use MCP_HTTP_ADDR env var.")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging, same as --log-level=debug")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error. Can also use LOG_LEVEL env var.")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Only register tools that do not modify goals")
	cmd.Flags().BoolVar(&opts.metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// loadServeEnvVars applies environment variables to options whose flag was
// not set explicitly.
func loadServeEnvVars(cmd *cobra.Command, opts *serveOptions) {
	if !cmd.Flags().Changed("transport") {
		if v := os.Getenv("MCP_TRANSPORT"); v != "" {
			opts.transport = v
		}
	}
	if !cmd.Flags().Changed("http-addr") {
		if v := os.Getenv("MCP_HTTP_ADDR"); v != "" {
			opts.httpAddr = v
		}
	}
	if !cmd.Flags().Changed("log-level") {
		if v := os.Getenv("LOG_LEVEL"); v != "" {
			opts.logLevel = v
		}
	}
	if !cmd.Flags().Changed("metrics-enabled") {
		switch strings.ToLower(os.Getenv("METRICS_ENABLED")) {
		case "true", "1":
			opts.metricsEnabled = true
		case "false", "0":
			opts.metricsEnabled = false
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if v := os.Getenv("METRICS_ADDR"); v != "" {
			opts.metricsAddr = v
		}
	}
}

// newLogger logs to w, as JSON for the HTTP transport and as text for stdio
// where a human usually reads stderr.
func newLogger(w io.Writer, transport string, level slog.Level) *slog.Logger {
	return logging.NewLogger(w, level, transport != transportStdio)
}

func logLevel(opts serveOptions) slog.Level {
	if opts.debug {
		return slog.LevelDebug
	}
	return logging.ParseLevel(opts.logLevel)
}

func runServe(opts serveOptions) error {
	if opts.transport != transportStdio && opts.transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slogger := newLogger(os.Stderr, opts.transport, logLevel(opts))
	slog.SetDefault(slogger)
	logger := logging.NewSlogAdapter(slogger)

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return err
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.KeyError, err.Error())
		}
	}()

	var metrics *instrumentation.Metrics
	if provider.Enabled() {
		metrics = provider.Metrics()
	}

	// The metrics port is only opened for HTTP transports exporting to prometheus.
	if opts.transport != transportStdio && opts.metricsEnabled && provider.MetricsHandler() != nil {
		metricsServer, err := startMetricsServer(opts.metricsAddr, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.KeyError, err.Error())
			}
		}()
	}

	serverContext, err := newServerContext(shutdownCtx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	serverContext.SetAuditLogger(instrumentation.NewAuditLogger(slogger, instrConfig.AuditLogging))
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.KeyError, err.Error())
		}
	}()

	// Note: mcp.Implementation has Title field but WithTitle() ServerOption not available in v0.43.0
	mcpSrv := mcpserver.NewMCPServer("didagoals", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := registerAllTools(mcpSrv, serverContext, opts.readOnly); err != nil {
		return err
	}

	logger.Info("starting didagoals",
		"transport", opts.transport,
		"backend", cfg.Backend,
		"read_only", opts.readOnly,
		"progress_store", cfg.Progress.Store)

	switch opts.transport {
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg, opts.httpAddr, metrics, logger)
	default:
		return runStdioServer(mcpSrv)
	}
}

// newServerContext opens the host source, progress store and event
// publisher described by cfg and wires them into a ServerContext. Whatever
// was opened is closed again when a later step fails.
func newServerContext(ctx context.Context, cfg *config.Config, metrics *instrumentation.Metrics, logger logging.Logger) (*server.ServerContext, error) {
	source, err := newSource(ctx, cfg, metrics, logger)
	if err != nil {
		return nil, err
	}

	analyzer, err := relevance.NewAnalyzerFromFile(cfg.Text.StopWordsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load stop words: %w", err)
	}

	store, err := progress.Open(ctx, cfg.ProgressStore())
	if err != nil {
		return nil, err
	}

	publisher, err := newPublisher(cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	sc, err := server.NewServerContext(ctx, server.Dependencies{
		Source:        source,
		Backend:       cfg.Backend,
		Store:         store,
		Publisher:     publisher,
		Analyzer:      analyzer,
		Location:      cfg.Location(),
		ContainerName: cfg.Goals.ContainerName,
		Logger:        logger,
		Metrics:       metrics,
	})
	if err != nil {
		_ = publisher.Close()
		_ = store.Close()
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	return sc, nil
}

// newPublisher returns a NATS publisher when events.nats_url is set.
func newPublisher(cfg *config.Config) (events.Publisher, error) {
	if cfg.Events.NATSURL == "" {
		return events.Nop{}, nil
	}
	p, err := events.NewNATSPublisher(events.NATSConfig{
		URL:           cfg.Events.NATSURL,
		SubjectPrefix: cfg.Events.SubjectPrefix,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// registerAllTools registers all MCP tools
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Goal",
			register: func() error {
				return goal_tools.RegisterGoalTools(mcpSrv, sc, readOnly)
			},
		},
		{
			name: "Analytics",
			register: func() error {
				return analytics_tools.RegisterAnalyticsTools(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}
	return nil
}

func startMetricsServer(addr string, provider *instrumentation.Provider, logger logging.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	ready := make(chan struct{})
	failed := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(ready); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
		close(failed)
	}()

	select {
	case <-ready:
		logger.Info("metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-failed:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(
	ctx context.Context,
	mcpSrv *mcpserver.MCPServer,
	sc *server.ServerContext,
	cfg *config.Config,
	addr string,
	metrics *instrumentation.Metrics,
	logger logging.Logger,
) error {
	if cfg.Server.APIKey == "" {
		logger.Warn("no API key configured, the MCP endpoint accepts unauthenticated requests")
	}

	httpServer := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		Addr:    addr,
		APIKey:  cfg.Server.APIKey,
		Health:  server.NewHealthChecker(sc),
		Metrics: metrics,
		Logger:  logger,
	})

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}
