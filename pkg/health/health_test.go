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

func runTimes(c *check, n int) {
	for i := 0; i < n; i++ {
		c.run(context.Background())
	}
}

func TestCheck_FailureThreshold(t *testing.T) {
	var err error
	c := &check{name: "db", timeout: time.Second, fn: func(context.Context) error { return err }}

	bad, _ := c.failing()
	assert.False(t, bad, "a never-run check is not failing")

	err = errors.New("connection refused")
	runTimes(c, failureThreshold-1)
	bad, _ = c.failing()
	assert.False(t, bad, "below threshold")

	runTimes(c, 1)
	bad, lastErr := c.failing()
	assert.True(t, bad)
	assert.EqualError(t, lastErr, "connection refused")

	// One success resets the streak.
	err = nil
	runTimes(c, 1)
	bad, _ = c.failing()
	assert.False(t, bad)
}

func TestCheck_TimeoutApplies(t *testing.T) {
	c := &check{name: "slow", timeout: 10 * time.Millisecond, fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	runTimes(c, failureThreshold)

	bad, err := c.failing()
	assert.True(t, bad)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIsReady(t *testing.T) {
	h := New()
	assert.False(t, h.IsReady(), "not ready before SetReady")

	h.SetReady(true)
	assert.True(t, h.IsReady())

	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		return errors.New("down")
	})
	runTimes(h.readiness[0], failureThreshold)
	assert.False(t, h.IsReady(), "failing readiness check closes the gate")

	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func probeBody(t *testing.T, rec *httptest.ResponseRecorder) probeResponse {
	t.Helper()
	var resp probeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.AddReadinessCheck("db", time.Second, func(context.Context) error { return nil })
	runTimes(h.readiness[0], 1)

	rec := httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "gate still closed")
	assert.Equal(t, "not ready", probeBody(t, rec).Failures["service"])

	h.SetReady(true)
	rec = httptest.NewRecorder()
	h.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", probeBody(t, rec).Status)
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, func(context.Context) error {
		return errors.New("too many")
	})
	runTimes(h.liveness[0], failureThreshold)

	rec := httptest.NewRecorder()
	h.LiveEndpoint(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := probeBody(t, rec)
	assert.Equal(t, "failing", resp.Status)
	assert.Equal(t, "too many", resp.Failures["goroutines"])
}

func TestStartAndStop(t *testing.T) {
	h := New()
	ran := make(chan struct{}, 1)
	h.AddReadinessCheck("db", time.Second, func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	h.Start(context.Background(), 50*time.Millisecond)
	defer h.Stop()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("check never ran after Start")
	}

	h.Stop()
	h.Stop() // idempotent
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}
