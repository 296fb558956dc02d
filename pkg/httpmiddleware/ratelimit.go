package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Decision is the outcome of a rate limit check.
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter counts requests per key.
type Limiter interface {
	Allow(ctx context.Context, key string, now time.Time) (Decision, error)
}

// WindowLimiter is an in-process sliding window limiter: the previous
// window's count is weighted by how much it still overlaps the current one.
type WindowLimiter struct {
	max    int
	window time.Duration

	mu      sync.Mutex
	windows map[string]*counter
}

type counter struct {
	start time.Time
	prev  int
	curr  int
}

// NewWindowLimiter allows max requests per window for every key.
func NewWindowLimiter(max int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{max: max, window: window, windows: make(map[string]*counter)}
}

// Allow implements Limiter.
func (l *WindowLimiter) Allow(_ context.Context, key string, now time.Time) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	start := now.Truncate(l.window)
	c, ok := l.windows[key]
	switch {
	case !ok:
		c = &counter{start: start}
		l.windows[key] = c
	case start.Sub(c.start) == l.window:
		c.start, c.prev, c.curr = start, c.curr, 0
	case start.Sub(c.start) > l.window:
		c.start, c.prev, c.curr = start, 0, 0
	}

	overlap := 1 - float64(now.Sub(c.start))/float64(l.window)
	used := int(math.Ceil(float64(c.prev)*overlap)) + c.curr
	d := Decision{Reset: c.start.Add(l.window)}
	if used >= l.max {
		return d, nil
	}
	c.curr++
	d.Allowed = true
	d.Remaining = l.max - used - 1
	return d, nil
}

// Sweep drops counters idle for more than two windows.
func (l *WindowLimiter) Sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, c := range l.windows {
		if now.Sub(c.start) >= 2*l.window {
			delete(l.windows, key)
		}
	}
}

// RunSweeper calls Sweep every interval until ctx is done.
func (l *WindowLimiter) RunSweeper(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			l.Sweep(now)
		}
	}
}

// RateLimitConfig configures RateLimit.
type RateLimitConfig struct {
	Limiter Limiter
	Max     int
	// Key extracts the client key; the client IP by default.
	Key func(*http.Request) string
}

// RateLimit rejects requests over the limit with 429 and reports the quota in
// X-RateLimit-* headers. Limiter failures are logged and let the request
// through.
func RateLimit(cfg RateLimitConfig) Middleware {
	key := cfg.Key
	if key == nil {
		key = ClientIP
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			d, err := cfg.Limiter.Allow(r.Context(), key(r), now)
			if err != nil {
				zctx.From(r.Context()).Warn("Rate limiter failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))
			if !d.Allowed {
				retry := max(d.Reset.Sub(now), 0)
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
				WriteError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the remote
// address host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
