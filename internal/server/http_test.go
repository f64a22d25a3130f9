package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/didagoals/internal/logging"
)

const initializeRequest = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0.0"}}}`

func TestHTTPServer_Handler(t *testing.T) {
	mcpSrv := mcpserver.NewMCPServer("didagoals", "test", mcpserver.WithToolCapabilities(true))
	s := NewHTTPServer(mcpSrv, HTTPServerConfig{APIKey: "secret", Logger: logging.DiscardLogger()})
	defer s.Sessions().Stop()

	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	post := func(key string) *http.Response {
		req, err := http.NewRequest(http.MethodPost, ts.URL+PathMCP, strings.NewReader(initializeRequest))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json, text/event-stream")
		if key != "" {
			req.Header.Set(APIKeyHeader, key)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	assert.Equal(t, http.StatusUnauthorized, post("").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, post("wrong").StatusCode)

	resp := post("secret")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Mcp-Session-Id"))
	assert.Equal(t, 1, s.Sessions().ActiveSessions())

	health, err := http.Get(ts.URL + PathHealthz)
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}
