package search

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// debounceLimiter hands out a per-client-key token bucket allowing at most
// one search execution per debounce interval, the token-bucket
// implementation of spec.md §4.7's debounce step: rapid repeat queries
// from the same client (remote address + path, per clientKey) wait for a
// token rather than hitting the FTS reader on every keystroke.
type debounceLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

func newDebounceLimiter(interval time.Duration) *debounceLimiter {
	return &debounceLimiter{limiters: make(map[string]*rate.Limiter), interval: interval}
}

// reserve returns a reservation for clientKey's next token, creating its
// limiter on first use. Callers check reservation.Delay() and must call
// Cancel() if they give up before the delay elapses.
func (d *debounceLimiter) reserve(clientKey string) *rate.Reservation {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[clientKey]
	if !ok {
		l = rate.NewLimiter(rate.Every(d.interval), 1)
		d.limiters[clientKey] = l
	}
	return l.Reserve()
}
