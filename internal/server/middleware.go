package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/teemow/didagoals/internal/instrumentation"
	"github.com/teemow/didagoals/internal/logging"
)

// APIKeyHeader carries the server API key.
const APIKeyHeader = "x-api-key"

// Paths served by HTTPServer. Metrics label any other path as "other".
const (
	PathMCP            = "/mcp"
	PathHealthz        = "/healthz"
	PathReadyz         = "/readyz"
	PathHealthDetailed = "/healthz/detailed"
)

var knownPaths = []string{PathMCP, PathHealthz, PathReadyz, PathHealthDetailed}

// RequireAPIKey rejects requests that do not present key in the x-api-key
// header or as a Bearer token. An empty key disables the check.
func RequireAPIKey(key string, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := requestAPIKey(r)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				logger.Warn("rejected request with missing or invalid API key",
					"path", r.URL.Path, "remote_addr", r.RemoteAddr)
				http.Error(w, "Unauthorized: missing or invalid x-api-key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > len("Bearer ") && strings.EqualFold(auth[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return ""
}

// RecordHTTPMetrics counts every request by method, normalized path and
// status code. A nil m disables recording.
func RecordHTTPMetrics(m *instrumentation.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			m.RecordHTTPRequest(r.Context(), r.Method,
				instrumentation.NormalizePath(r.URL.Path, knownPaths...), rec.status, time.Since(start))
		})
	}
}

// statusRecorder captures the response status. It forwards Flush so
// streamed MCP responses keep working.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
