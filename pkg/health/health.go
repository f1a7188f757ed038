// Package health provides Kubernetes-style liveness and readiness probe
// endpoints. Checks run on demand when a probe endpoint is hit, each bounded
// by its own timeout.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports the health of one component: nil when healthy, an error
// describing the problem otherwise.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Health manages liveness and readiness checks for a service. The service
// starts not ready; call SetReady(true) after initialization and
// SetReady(false) to start draining.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []check
	readiness []check
}

// New creates a Health instance in the not-ready state.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness check (process-level health:
// goroutine count, deadlock detection).
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a readiness check (dependency health: database
// connectivity, broker connectivity).
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the readiness gate. Readiness checks only run while the
// gate is open.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Ready reports the current readiness gate state.
func (h *Health) Ready() bool {
	return h.ready.Load()
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves the liveness probe.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := append([]check(nil), h.liveness...)
	h.mu.RUnlock()

	h.respond(w, r, checks, true)
}

// ReadyEndpoint serves the readiness probe. It reports not ready while the
// gate is closed without running any checks.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		writeProbe(w, http.StatusServiceUnavailable, probeResponse{Status: "not ready"})
		return
	}

	h.mu.RLock()
	checks := append([]check(nil), h.readiness...)
	h.mu.RUnlock()

	h.respond(w, r, checks, false)
}

func (h *Health) respond(w http.ResponseWriter, r *http.Request, checks []check, liveness bool) {
	results := make(map[string]string, len(checks))
	healthy := true

	for _, c := range checks {
		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		err := c.fn(ctx)
		cancel()
		if err != nil {
			healthy = false
			results[c.name] = err.Error()
		} else {
			results[c.name] = "ok"
		}
	}

	if !healthy {
		status := "not ready"
		if liveness {
			status = "unhealthy"
		}
		writeProbe(w, http.StatusServiceUnavailable, probeResponse{Status: status, Checks: results})
		return
	}
	writeProbe(w, http.StatusOK, probeResponse{Status: "ok", Checks: results})
}

func writeProbe(w http.ResponseWriter, code int, resp probeResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
