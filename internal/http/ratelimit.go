package http

import (
	"sync"
	"sync/atomic"
	"time"
)

// Mutating endpoints are limited per client IP over a fixed window. Reads
// are exempt; totals and advice are cached and cheap.
const (
	rateLimitWindow   = time.Minute
	rateLimitRequests = 60
	rateLimitStaleAge = 10 * time.Minute
)

// rateLimiter counts mutating requests per client IP in memory. State is
// per process; a multi-instance deployment would need a shared store.
type rateLimiter struct {
	mu      sync.Mutex
	windows map[string]*clientWindow

	stopSweep chan struct{}
	stopOnce  sync.Once
}

type clientWindow struct {
	start time.Time
	count int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		windows:   make(map[string]*clientWindow),
		stopSweep: make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// allow records a request for clientIP and reports whether it fits in the
// current window. Over-limit hits are counted in metrics when provided.
func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[clientIP]
	if !ok || now.Sub(w.start) > rateLimitWindow {
		rl.windows[clientIP] = &clientWindow{start: now, count: 1}
		return true
	}

	w.count++
	if w.count > rateLimitRequests {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

func (rl *rateLimiter) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.dropStaleWindows()
		case <-rl.stopSweep:
			return
		}
	}
}

// dropStaleWindows forgets clients that have been quiet long enough that
// their window no longer matters.
func (rl *rateLimiter) dropStaleWindows() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rateLimitStaleAge)
	for ip, w := range rl.windows {
		if w.start.Before(cutoff) {
			delete(rl.windows, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() {
		close(rl.stopSweep)
	})
}
