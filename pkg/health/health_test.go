package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passingCheck() CheckFunc {
	return func(_ context.Context) error {
		return nil
	}
}

func failingCheck(msg string) CheckFunc {
	return func(_ context.Context) error {
		return errors.New(msg)
	}
}

func decodeProbeResponse(t *testing.T, w *httptest.ResponseRecorder) probeResponse {
	t.Helper()
	var body probeResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestLiveEndpointAllPassing(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, passingCheck())
	h.AddLivenessCheck("gc", time.Second, passingCheck())

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "pass", decodeProbeResponse(t, w).Status)
}

func TestLiveEndpointFailingProbe(t *testing.T) {
	h := New()
	h.AddLivenessCheck("db", time.Second, failingCheck("connection refused"))

	// A probe flips to failing only after three consecutive errors.
	ctx := context.Background()
	for range failStreakLimit {
		h.liveness[0].run(ctx)
	}

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeProbeResponse(t, w)
	assert.Equal(t, "fail", body.Status)
	assert.Equal(t, "connection refused", body.Failures["db"])
}

func TestProbeFailStreak(t *testing.T) {
	p := &probe{name: "flaky", timeout: time.Second, check: failingCheck("boom")}
	ctx := context.Background()

	p.run(ctx)
	p.run(ctx)
	failing, _ := p.status()
	assert.False(t, failing, "two consecutive failures should not flip the probe")

	p.run(ctx)
	failing, lastErr := p.status()
	assert.True(t, failing)
	assert.EqualError(t, lastErr, "boom")

	// A single success recovers.
	p.check = passingCheck()
	p.run(ctx)
	failing, _ = p.status()
	assert.False(t, failing)
}

func TestReadyEndpointManualGate(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, passingCheck())
	h.readiness[0].run(context.Background())

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not ready", decodeProbeResponse(t, w).Failures["service"])

	h.SetReady(true)
	w = httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Shutdown closes the gate again.
	h.SetReady(false)
	w = httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestIsReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("postgres", time.Second, failingCheck("down"))

	h.SetReady(true)
	assert.True(t, h.IsReady(), "probe has not failed enough times yet")

	ctx := context.Background()
	for range failStreakLimit {
		h.readiness[0].run(ctx)
	}
	assert.False(t, h.IsReady())
}

func TestStartRunsProbes(t *testing.T) {
	ran := make(chan struct{}, 1)
	h := New()
	h.AddReadinessCheck("postgres", time.Second, func(_ context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	h.Start(context.Background(), time.Hour)
	defer h.Stop()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("probe did not run after Start")
	}
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(100000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(_ context.Context) error { return s.err }

func TestPingCheck(t *testing.T) {
	require.NoError(t, PingCheck(stubPinger{})(context.Background()))

	err := PingCheck(stubPinger{err: errors.New("refused")})(context.Background())
	assert.ErrorContains(t, err, "refused")
}
