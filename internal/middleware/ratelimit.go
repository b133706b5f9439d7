package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig tunes the per-client request throttle.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained refill rate of each client's bucket.
	RequestsPerSecond float64
	// Burst is how many requests a client may issue back to back.
	Burst int
}

const (
	visitorTTL        = 10 * time.Minute
	visitorSweepEvery = 5 * time.Minute
)

// visitorTable keeps one token bucket per client address. Idle entries are
// dropped by a background sweep so the table does not accumulate an entry for
// every address ever seen.
type visitorTable struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      float64
	burst    int
}

type visitor struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func (t *visitorTable) bucket(addr string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.visitors[addr]
	if !ok {
		v = &visitor{bucket: rate.NewLimiter(rate.Limit(t.rps), t.burst)}
		t.visitors[addr] = v
	}
	v.lastSeen = time.Now()
	return v.bucket
}

func (t *visitorTable) sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for addr, v := range t.visitors {
		if time.Since(v.lastSeen) > visitorTTL {
			delete(t.visitors, addr)
		}
	}
}

func (t *visitorTable) sweepLoop() {
	for {
		time.Sleep(visitorSweepEvery)
		t.sweep()
	}
}

// RateLimiter throttles each client address with a token bucket. Rejected
// requests receive a plain-text 429 with a Retry-After hint; accepted requests
// carry the usual X-RateLimit-* headers.
func RateLimiter(cfg RateLimitConfig) func(http.Handler) http.Handler {
	tab := &visitorTable{
		visitors: make(map[string]*visitor),
		rps:      cfg.RequestsPerSecond,
		burst:    cfg.Burst,
	}
	go tab.sweepLoop()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bucket := tab.bucket(clientAddr(r))

			res := bucket.Reserve()
			if !res.OK() {
				rejectThrottled(w, 0)
				return
			}
			if delay := res.Delay(); delay > 0 {
				res.Cancel()
				rejectThrottled(w, int(delay.Seconds())+1)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Burst))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(bucket.Tokens())))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Second).Unix(), 10))

			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr keys the throttle on the transport peer, with the port stripped.
// Forwarded headers are not consulted; the portal terminates its own listener.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func rejectThrottled(w http.ResponseWriter, retryAfterSecs int) {
	if retryAfterSecs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSecs))
	}
	// The portal serves browsers, so the rejection is plain text rather than JSON.
	http.Error(w, "rate limit exceeded, retry shortly", http.StatusTooManyRequests)
}
