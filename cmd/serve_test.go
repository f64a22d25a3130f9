package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/didagoals/internal/config"
	"github.com/teemow/didagoals/internal/dida"
	"github.com/teemow/didagoals/internal/events"
	"github.com/teemow/didagoals/internal/logging"
)

func TestLoadServeEnvVars(t *testing.T) {
	t.Setenv("MCP_TRANSPORT", "streamable-http")
	t.Setenv("MCP_HTTP_ADDR", ":9999")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("METRICS_ADDR", ":9191")
	t.Setenv("LOG_LEVEL", "warn")

	t.Run("env applies to unset flags", func(t *testing.T) {
		cmd := newServeCmd()
		require.NoError(t, cmd.ParseFlags(nil))
		opts := serveOptions{transport: transportStdio, httpAddr: ":8080", metricsEnabled: true, metricsAddr: ":9090"}

		loadServeEnvVars(cmd, &opts)

		assert.Equal(t, "streamable-http", opts.transport)
		assert.Equal(t, ":9999", opts.httpAddr)
		assert.False(t, opts.metricsEnabled)
		assert.Equal(t, ":9191", opts.metricsAddr)
		assert.Equal(t, "warn", opts.logLevel)
	})

	t.Run("explicit flags win", func(t *testing.T) {
		cmd := newServeCmd()
		require.NoError(t, cmd.ParseFlags([]string{"--transport=stdio", "--metrics-enabled=true"}))
		opts := serveOptions{transport: transportStdio, httpAddr: ":8080", metricsEnabled: true, metricsAddr: ":9090"}

		loadServeEnvVars(cmd, &opts)

		assert.Equal(t, transportStdio, opts.transport)
		assert.True(t, opts.metricsEnabled)
		assert.Equal(t, ":9999", opts.httpAddr)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, transportStreamableHTTP, slog.LevelInfo).Info("hello", "k", "v")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())

	buf.Reset()
	logger := newLogger(&buf, transportStdio, slog.LevelInfo)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")

	buf.Reset()
	newLogger(&buf, transportStdio, slog.LevelDebug).Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, logLevel(serveOptions{logLevel: "info"}))
	assert.Equal(t, slog.LevelWarn, logLevel(serveOptions{logLevel: "WARN"}))
	assert.Equal(t, slog.LevelDebug, logLevel(serveOptions{logLevel: "error", debug: true}))
	assert.Equal(t, slog.LevelInfo, logLevel(serveOptions{logLevel: "verbose"}))
}

func TestRunServe_RejectsUnknownTransport(t *testing.T) {
	err := runServe(serveOptions{transport: "sse"})
	assert.EqualError(t, err, "unsupported transport type: sse (supported: stdio, streamable-http)")
}

func TestNewPublisher_NopWithoutURL(t *testing.T) {
	p, err := newPublisher(config.Default())
	require.NoError(t, err)
	assert.IsType(t, events.Nop{}, p)
}

func TestNewServerContext_StaticDidaToken(t *testing.T) {
	cfg := config.Default()
	cfg.Dida.AccessToken = "token"

	sc, err := newServerContext(context.Background(), cfg, nil, logging.DiscardLogger())
	require.NoError(t, err)
	defer func() { _ = sc.Shutdown() }()

	assert.IsType(t, &dida.Client{}, sc.Source())
	assert.Equal(t, config.BackendDida, sc.Backend())
}

func TestNewServerContext_MissingCredentials(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	cfg := config.Default()

	_, err := newServerContext(context.Background(), cfg, nil, logging.DiscardLogger())
	assert.Error(t, err)
}

func TestRegisterAllTools(t *testing.T) {
	cfg := config.Default()
	cfg.Dida.AccessToken = "token"
	sc, err := newServerContext(context.Background(), cfg, nil, logging.DiscardLogger())
	require.NoError(t, err)
	defer func() { _ = sc.Shutdown() }()

	readWrite := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, registerAllTools(readWrite, sc, false))
	assert.Len(t, readWrite.ListTools(), 14)

	readOnly := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
	require.NoError(t, registerAllTools(readOnly, sc, true))
	assert.Len(t, readOnly.ListTools(), 10)
	assert.NotContains(t, readOnly.ListTools(), "create_goal")
}
