package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func throttled(cfg RateLimitConfig) http.Handler {
	return RateLimiter(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func throttledGet(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	handler := throttled(RateLimitConfig{RequestsPerSecond: 100, Burst: 10})

	for i := 0; i < 5; i++ {
		rec := throttledGet(handler, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
	}
}

func TestRateLimiter_RejectsOverBurst(t *testing.T) {
	handler := throttled(RateLimitConfig{RequestsPerSecond: 1, Burst: 2})

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, throttledGet(handler, "").Code)
	}

	rec := throttledGet(handler, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimiter_PerClientIsolation(t *testing.T) {
	handler := throttled(RateLimitConfig{RequestsPerSecond: 1, Burst: 2})

	// Client A exhausts its burst; the source port must not matter.
	require.Equal(t, http.StatusOK, throttledGet(handler, "10.0.0.1:1234").Code)
	require.Equal(t, http.StatusOK, throttledGet(handler, "10.0.0.1:2345").Code)
	assert.Equal(t, http.StatusTooManyRequests, throttledGet(handler, "10.0.0.1:5678").Code)

	// Client B is untouched by A's exhaustion.
	assert.Equal(t, http.StatusOK, throttledGet(handler, "10.0.0.2:1234").Code)
}

func TestClientAddr_StripsPortAndIgnoresForwarding(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		want       string
	}{
		{name: "IPv4 with port", remoteAddr: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "IPv6 with port", remoteAddr: "[::1]:12345", want: "::1"},
		{name: "X-Forwarded-For ignored", remoteAddr: "10.0.0.1:1234", forwarded: "203.0.113.50", want: "10.0.0.1"},
		{name: "forwarding chain ignored", remoteAddr: "10.0.0.1:1234", forwarded: "203.0.113.50, 70.41.3.18", want: "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, clientAddr(req))
		})
	}
}

func TestVisitorTable_SweepDropsIdleEntries(t *testing.T) {
	tab := &visitorTable{visitors: make(map[string]*visitor), rps: 1, burst: 1}
	tab.bucket("10.0.0.1")
	tab.bucket("10.0.0.2")
	tab.visitors["10.0.0.1"].lastSeen = time.Now().Add(-visitorTTL - time.Minute)

	tab.sweep()

	assert.NotContains(t, tab.visitors, "10.0.0.1")
	assert.Contains(t, tab.visitors, "10.0.0.2")
}
