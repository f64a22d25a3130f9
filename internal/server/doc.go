// Package server assembles the goal services behind the MCP server and
// exposes them over HTTP.
//
// # Key Components
//
// ServerContext owns the host source, progress store, event publisher and
// the services built on them: the goal repository, the goal matcher and the
// analytics aggregator. Tool handlers reach every collaborator through it.
//
// HTTPServer serves the streamable-HTTP MCP endpoint at /mcp together with
// the /healthz and /readyz probes. When an API key is configured every /mcp
// request must carry it in the x-api-key header or as a Bearer token.
//
// SessionIDManager issues MCP session IDs and expires idle sessions.
//
// MetricsServer exposes Prometheus metrics on a dedicated port.
package server
