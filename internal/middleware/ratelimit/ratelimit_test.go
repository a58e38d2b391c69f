package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, perMinute int) (*Limiter, *time.Time) {
	t.Helper()
	l := NewLimiter(Config{RequestsPerMinute: perMinute, SweepInterval: time.Hour})
	t.Cleanup(l.Stop)
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_Take(t *testing.T) {
	l, now := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		d := l.Take("10.0.0.1")
		assert.True(t, d.Allowed, "request %d", i+1)
		assert.Equal(t, 2-i, d.Remaining)
	}
	d := l.Take("10.0.0.1")
	assert.False(t, d.Allowed)
	assert.Zero(t, d.Remaining)
	assert.Equal(t, now.Add(time.Minute), d.ResetAt)

	assert.True(t, l.Allow("10.0.0.2"), "clients are limited independently")

	*now = now.Add(59 * time.Second)
	assert.False(t, l.Allow("10.0.0.1"), "steady traffic does not extend the window")

	*now = now.Add(2 * time.Second)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestLimiter_ForgetIdle(t *testing.T) {
	l, now := newTestLimiter(t, 3)
	l.Allow("10.0.0.1")
	*now = now.Add(5 * time.Minute)
	l.Allow("10.0.0.2")
	*now = now.Add(6 * time.Minute)

	l.forgetIdle()

	assert.Equal(t, 1, l.Clients())
}

func TestLimiter_Middleware(t *testing.T) {
	l, now := newTestLimiter(t, 1)
	h := l.Middleware(
		func(*http.Request) string { return "10.0.0.1" },
		func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
	)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/summary", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	*now = now.Add(45 * time.Second)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard/summary", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "15", rec.Header().Get("Retry-After"))
}

func TestLimiter_MiddlewareDefaultRefusal(t *testing.T) {
	l, _ := newTestLimiter(t, 1)
	h := l.Middleware(func(*http.Request) string { return "10.0.0.9" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	l := NewLimiter(DefaultConfig())
	l.Stop()
	l.Stop()
}
