// Package ratelimit counts requests per key in fixed windows.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter keeps counters in process. State is lost on restart.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
	now      func() time.Time
}

type visitor struct {
	count     int
	lastReset time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

// Allow counts a hit for key. The window restarts lazily on the first hit
// after it has elapsed.
func (rl *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	now := rl.now()

	if !exists {
		rl.visitors[key] = &visitor{count: 1, lastReset: now}
		return rl.limit > 0, nil
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return rl.limit > 0, nil
	}

	v.count++
	return v.count <= rl.limit, nil
}

// Run evicts idle keys every interval until ctx is done.
func (rl *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evict()
		}
	}
}

func (rl *MemoryLimiter) evict() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, v := range rl.visitors {
		if now.Sub(v.lastReset) > rl.window*2 {
			delete(rl.visitors, key)
		}
	}
}
