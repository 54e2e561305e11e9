// Package health implements liveness and readiness probes for the API server.
//
// Probes run on a shared background ticker. A probe flips to failing only
// after three consecutive errors and recovers on the first success, so a
// single slow database round-trip does not bounce the pod out of the
// load balancer.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

const failStreakLimit = 3

// CheckFunc probes a single dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// probe is one registered check plus its rolling state. State is guarded by
// mu because the runner goroutine writes it while HTTP handlers read it.
type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	mu         sync.Mutex
	failing    bool
	failStreak int
	lastErr    error
}

func (p *probe) observe(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err == nil {
		p.failStreak = 0
		p.failing = false
		return
	}
	p.failStreak++
	if p.failStreak >= failStreakLimit {
		p.failing = true
	}
}

func (p *probe) status() (failing bool, lastErr error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failing, p.lastErr
}

func (p *probe) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	p.observe(p.check(ctx))
}

// Health exposes /livez and /readyz handlers backed by registered probes.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New returns a Health service in the not-ready state. Call SetReady(true)
// once initialization has finished.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe for /livez. Liveness probes should catch
// conditions a restart would fix, such as a goroutine leak.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, &probe{name: name, timeout: timeout, check: check})
}

// AddReadinessCheck registers a probe for /readyz. Readiness probes cover
// dependencies the service cannot serve traffic without, such as the
// database connection.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, &probe{name: name, timeout: timeout, check: check})
}

// Start runs every registered probe once immediately and then on the given
// interval, until Stop is called or ctx is cancelled. Register all probes
// before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := make([]*probe, 0, len(h.liveness)+len(h.readiness))
	probes = append(probes, h.liveness...)
	probes = append(probes, h.readiness...)
	h.mu.Unlock()

	go func() {
		runAll := func() {
			for _, p := range probes {
				p.run(ctx)
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

// Stop halts the probe runner. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Set it to false at the start of
// graceful shutdown so the load balancer stops routing new requests.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// is passing.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	h.mu.RLock()
	probes := h.readiness
	h.mu.RUnlock()
	for _, p := range probes {
		if failing, _ := p.status(); failing {
			return false
		}
	}
	return true
}

type probeResponse struct {
	Status   string            `json:"status"`
	Failures map[string]string `json:"failures,omitempty"`
}

// LiveEndpoint serves /livez: 200 while all liveness probes pass, 503 with
// failure details otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	probes := append([]*probe(nil), h.liveness...)
	h.mu.RUnlock()

	writeProbeResponse(w, failures(probes))
}

// ReadyEndpoint serves /readyz: 200 when the manual gate is open and all
// readiness probes pass, 503 with failure details otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	probes := append([]*probe(nil), h.readiness...)
	h.mu.RUnlock()

	fails := failures(probes)
	if !h.ready.Load() {
		fails["service"] = "not ready"
	}
	writeProbeResponse(w, fails)
}

func failures(probes []*probe) map[string]string {
	fails := make(map[string]string)
	for _, p := range probes {
		failing, lastErr := p.status()
		if !failing {
			continue
		}
		if lastErr != nil {
			fails[p.name] = lastErr.Error()
		} else {
			fails[p.name] = "failing"
		}
	}
	return fails
}

func writeProbeResponse(w http.ResponseWriter, fails map[string]string) {
	resp := probeResponse{Status: "pass"}
	code := http.StatusOK
	if len(fails) > 0 {
		resp = probeResponse{Status: "fail", Failures: fails}
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
