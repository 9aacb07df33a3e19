// Package ratelimit implements the per-source fixed-window request throttle
// consulted by every mutating endpoint. The first request from a source (or
// the first after its window expired) opens a new window with count 1; later
// requests increment the count and are rejected once it exceeds the limit.
package ratelimit

import (
	"context"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Count      int           // requests seen in the current window, including this one
	Limit      int           // maximum allowed in the window
	RetryAfter time.Duration // time until the window resets
}

// Remaining is how many more requests the current window accepts.
func (d Decision) Remaining() int {
	if r := d.Limit - d.Count; r > 0 {
		return r
	}
	return 0
}

// Limiter decides whether the request identified by sourceID may proceed.
type Limiter interface {
	Allow(ctx context.Context, sourceID string, max int, window time.Duration) (Decision, error)
}
