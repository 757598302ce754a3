// Per-IP request throttle for the chronicle endpoint. Chronicle rendering
// walks every event in the requested window, so its cost grows with run
// length; the JSON handlers serve bounded views and stay unthrottled.
package api

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Sweep the client table once it holds this many entries.
const throttleSweepSize = 1024

// Throttle applies a fixed-window request cap per client IP.
type Throttle struct {
	mu     sync.Mutex
	seen   map[string]windowCount
	limit  int
	window time.Duration
}

type windowCount struct {
	hits  int
	since time.Time
}

// NewThrottle allows limit requests per window from each client.
func NewThrottle(limit int, window time.Duration) *Throttle {
	return &Throttle{
		seen:   make(map[string]windowCount),
		limit:  limit,
		window: window,
	}
}

func (t *Throttle) allow(ip string, now time.Time) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.seen) >= throttleSweepSize {
		for k, wc := range t.seen {
			if now.Sub(wc.since) >= t.window {
				delete(t.seen, k)
			}
		}
	}

	wc, ok := t.seen[ip]
	if !ok || now.Sub(wc.since) >= t.window {
		t.seen[ip] = windowCount{hits: 1, since: now}
		return true, 0
	}
	if wc.hits < t.limit {
		wc.hits++
		t.seen[ip] = wc
		return true, 0
	}
	return false, t.window - now.Sub(wc.since)
}

// Wrap guards next with the throttle, answering 429 with a Retry-After
// header once a client exhausts its window.
func (t *Throttle) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, wait := t.allow(clientIP(r), time.Now())
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
			http.Error(w, "too many chronicle requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			xff = xff[:i]
		}
		return strings.TrimSpace(xff)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
