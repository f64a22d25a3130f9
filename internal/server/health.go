package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	statusOK           = "ok"
	statusNotReady     = "not ready"
	statusShuttingDown = "shutting down"
)

// HealthChecker serves the liveness and readiness probes. It starts ready;
// the HTTP server flips it off before draining.
type HealthChecker struct {
	sc      *ServerContext
	started time.Time
	ready   atomic.Bool
}

// NewHealthChecker returns a ready HealthChecker. sc may be nil.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{sc: sc, started: time.Now()}
	h.ready.Store(true)
	return h
}

func (h *HealthChecker) SetReady(ready bool) { h.ready.Store(ready) }

func (h *HealthChecker) IsReady() bool { return h.ready.Load() }

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Backend string `json:"backend,omitempty"`
}

// checks evaluates readiness. The overall status is the first failing
// check, or ok.
func (h *HealthChecker) checks() (string, map[string]string) {
	checks := map[string]string{"ready": statusOK, "shutdown": statusOK}
	status := statusOK
	if !h.ready.Load() {
		checks["ready"] = statusNotReady
		status = statusNotReady
	}
	if h.sc != nil && h.sc.IsShutdown() {
		checks["shutdown"] = statusShuttingDown
		if status == statusOK {
			status = statusShuttingDown
		}
	}
	return status, checks
}

func writeHealth(w http.ResponseWriter, status string, body any) {
	code := http.StatusOK
	if status != statusOK {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// LivenessHandler always reports ok while the process serves requests.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, statusOK, HealthResponse{Status: statusOK})
	})
}

// ReadinessHandler answers 503 while not ready or shutting down. Its status
// is "not ready" whenever any check fails.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status, checks := h.checks()
		resp := HealthResponse{Status: statusOK, Checks: checks}
		if status != statusOK {
			resp.Status = statusNotReady
		}
		writeHealth(w, status, resp)
	})
}

// DetailedHealthHandler adds uptime and the task host backend.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status, _ := h.checks()
		resp := DetailedHealthResponse{
			Status: status,
			Uptime: time.Since(h.started).Truncate(time.Second).String(),
		}
		if h.sc != nil {
			resp.Backend = h.sc.Backend()
		}
		writeHealth(w, status, resp)
	})
}

// RegisterHealthEndpoints mounts the probes on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle(PathHealthz, h.LivenessHandler())
	mux.Handle(PathReadyz, h.ReadinessHandler())
	mux.Handle(PathHealthDetailed, h.DetailedHealthHandler())
}
