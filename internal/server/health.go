package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusBreakerOpen  = "circuit open"
)

// HealthChecker serves liveness and readiness probes next to /metrics.
// Readiness fails while the process is draining or while Gmail calls are
// short-circuited by the breaker.
type HealthChecker struct {
	ready     atomic.Bool
	sc        *ServerContext
	startTime time.Time
}

// NewHealthChecker returns a checker that reports ready until SetReady(false).
// A nil ServerContext skips the shutdown and breaker probes.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{sc: sc, startTime: time.Now()}
	h.ready.Store(true)
	return h
}

// SetReady flips the readiness flag.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the readiness flag.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Breaker string `json:"breaker,omitempty"`
}

type probe struct {
	name string
	// failure is the status reported when the probe fails.
	failure string
	failing func() bool
}

func (h *HealthChecker) probes() []probe {
	return []probe{
		{name: "ready", failure: healthStatusNotReady, failing: func() bool { return !h.ready.Load() }},
		{name: "shutdown", failure: healthStatusShuttingDown, failing: func() bool {
			return h.sc != nil && h.sc.IsShutdown()
		}},
		{name: "gmail", failure: healthStatusBreakerOpen, failing: func() bool {
			return h.sc != nil && h.sc.BreakerState() == "open"
		}},
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// LivenessHandler answers ok as long as the process serves HTTP.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler runs every probe and answers 503 if any of them fails.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: healthStatusOK, Checks: make(map[string]string)}
		code := http.StatusOK
		for _, p := range h.probes() {
			if p.failing() {
				resp.Checks[p.name] = p.failure
				resp.Status = healthStatusNotReady
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[p.name] = healthStatusOK
		}
		writeJSON(w, code, resp)
	})
}

// DetailedHealthHandler adds uptime and the breaker state. Its status is
// driven by readiness and shutdown only, so an open breaker stays visible
// without the endpoint itself going red.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := DetailedHealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		}
		if h.sc != nil {
			resp.Breaker = h.sc.BreakerState()
		}

		code := http.StatusOK
		switch {
		case !h.ready.Load():
			resp.Status, code = healthStatusNotReady, http.StatusServiceUnavailable
		case h.sc != nil && h.sc.IsShutdown():
			resp.Status, code = healthStatusShuttingDown, http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	})
}

// RegisterHealthEndpoints mounts /healthz, /readyz and /healthz/detailed.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}
