// Package health serves liveness and readiness probes for the API server.
//
// Checks run on a single background scheduler goroutine. A check flips to
// failing only after failureThreshold consecutive errors, so one slow
// database ping during a webhook burst does not pull the service out of
// rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one dependency; nil means healthy.
type CheckFunc func(ctx context.Context) error

// failureThreshold is how many consecutive errors mark a check failing.
const failureThreshold = 3

// check pairs a probe function with its rolling failure state. State is
// written only by the scheduler goroutine; HTTP handlers read it through
// the mutex.
type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	mu       sync.Mutex
	failures int
	lastErr  error
}

func (c *check) run(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
	err := c.fn(probeCtx)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failures++
		c.lastErr = err
		return
	}
	c.failures = 0
	c.lastErr = nil
}

// failing returns the check's current verdict and the error behind it.
func (c *check) failing() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failures >= failureThreshold, c.lastErr
}

// Health tracks the service's liveness and readiness checks.
type Health struct {
	ready atomic.Bool

	mu        sync.Mutex
	liveness  []*check
	readiness []*check
	stop      context.CancelFunc
}

// New creates an empty Health. The service reports not ready until
// SetReady(true) is called after initialization.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a check answered on /livez. Liveness failures
// mean the process itself is broken (goroutine leak, deadlock) and should
// be restarted.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, &check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a check answered on /readyz. Readiness
// failures mean a dependency (the database) is unavailable and traffic
// should be routed elsewhere until it recovers.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, &check{name: name, timeout: timeout, fn: fn})
}

// Start launches the scheduler goroutine, running every registered check
// once per interval. Register all checks before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.stop = cancel
	checks := append(append([]*check(nil), h.liveness...), h.readiness...)
	h.mu.Unlock()

	go func() {
		runAll := func() {
			for _, c := range checks {
				c.run(ctx)
			}
		}
		runAll()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runAll()
			}
		}
	}()
}

// Stop cancels the scheduler. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stop != nil {
		h.stop()
		h.stop = nil
	}
}

// SetReady flips the manual readiness gate. It is set true once wiring is
// complete and false at the start of graceful shutdown so the load
// balancer drains the instance before the listener closes.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the gate is open and every readiness check
// passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	h.mu.Lock()
	checks := h.readiness
	h.mu.Unlock()
	for _, c := range checks {
		if bad, _ := c.failing(); bad {
			return false
		}
	}
	return true
}

// probeResponse is the JSON body for both probe endpoints.
type probeResponse struct {
	Status   string            `json:"status"`
	Failures map[string]string `json:"failures,omitempty"`
}

// LiveEndpoint answers /livez: 200 while liveness checks pass, 503 with
// the failing checks otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	checks := append([]*check(nil), h.liveness...)
	h.mu.Unlock()

	writeProbe(w, failuresOf(checks))
}

// ReadyEndpoint answers /readyz: 200 while the manual gate is open and
// readiness checks pass, 503 with details otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	checks := append([]*check(nil), h.readiness...)
	h.mu.Unlock()

	failures := failuresOf(checks)
	if !h.ready.Load() {
		failures["service"] = "not ready"
	}
	writeProbe(w, failures)
}

func failuresOf(checks []*check) map[string]string {
	failures := make(map[string]string)
	for _, c := range checks {
		bad, err := c.failing()
		if !bad {
			continue
		}
		if err != nil {
			failures[c.name] = err.Error()
		} else {
			failures[c.name] = "failing"
		}
	}
	return failures
}

func writeProbe(w http.ResponseWriter, failures map[string]string) {
	resp := probeResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp = probeResponse{Status: "failing", Failures: failures}
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
