package api

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// RateLimiter caps how often one client may hit an endpoint. Each client gets
// a fixed window that opens on its first request.
type RateLimiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	windows map[string]*window

	stop chan struct{}
	once sync.Once
}

type window struct {
	start time.Time
	used  int
}

// NewRateLimiter allows limit requests per client per period. Expired windows
// are swept hourly until Stop is called.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:   max(limit, 1),
		period:  period,
		now:     time.Now,
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
	}
	go rl.sweep(time.Hour)
	return rl
}

func (rl *RateLimiter) sweep(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-t.C:
			rl.cleanup()
		}
	}
}

// Stop ends the sweeper. Safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// open returns key's current window, starting a fresh one when the last has
// expired. Callers hold mu.
func (rl *RateLimiter) open(key string, now time.Time) *window {
	w := rl.windows[key]
	if w == nil || now.Sub(w.start) >= rl.period {
		w = &window{start: now}
		rl.windows[key] = w
	}
	return w
}

// Allow consumes one request for key and reports whether it was within the
// limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w := rl.open(key, rl.now())
	if w.used >= rl.limit {
		return false
	}
	w.used++
	return true
}

// RetryAfter is the whole number of seconds, rounded up past the boundary,
// until key's window closes. Zero for unknown or expired keys.
func (rl *RateLimiter) RetryAfter(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w := rl.windows[key]
	if w == nil {
		return 0
	}
	left := w.start.Add(rl.period).Sub(rl.now())
	if left < 0 {
		return 0
	}
	return int(left/time.Second) + 1
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-2 * rl.period)
	for key, w := range rl.windows {
		if w.start.Before(cutoff) {
			delete(rl.windows, key)
		}
	}
}

// Limit rejects over-limit callers with 429 and a Retry-After header.
func (rl *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if !rl.Allow(key) {
			w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfter(key)))
			http.Error(w, "too many saves, slow down", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}
