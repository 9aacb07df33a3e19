package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps windows in a process-local map. Limits are only
// approximate when several instances run; Prune must be called periodically
// or the map grows with every distinct source.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*window), now: time.Now}
}

func (m *MemoryLimiter) Allow(ctx context.Context, sourceID string, max int, win time.Duration) (Decision, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[sourceID]
	if !ok || !now.Before(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(win)}
		m.windows[sourceID] = w
	} else {
		w.count++
	}
	return Decision{
		Allowed:    w.count <= max,
		Count:      w.count,
		Limit:      max,
		RetryAfter: w.resetAt.Sub(now),
	}, nil
}

// Prune drops every window that has already expired and returns how many
// were removed.
func (m *MemoryLimiter) Prune() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
			removed++
		}
	}
	return removed
}

// Len is the number of tracked sources.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}
