package github

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when the GitHub API rate limit has been exceeded.
var ErrRateLimited = errors.New("rate limited")

// rateLimitLowWatermark triggers a debug log when remaining quota drops
// below this value.
const rateLimitLowWatermark = 50

// rateLimitState tracks the rate limit window of one client. The
// transport feeds it from response headers; the retry loop asks it how
// long to wait. Exhaustion self-heals once the reset time passes.
type rateLimitState struct {
	mu        sync.Mutex
	exhausted bool
	resetAt   time.Time
	remaining int
	limit     int
}

// observe records quota headers from a response. Zero remaining quota
// marks the window exhausted.
func (s *rateLimitState) observe(remaining, limit int, resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining = remaining
	s.limit = limit
	s.resetAt = resetAt
	if remaining == 0 {
		s.exhausted = true
	}
}

// markExhausted records a hard rate-limit response (403/429).
func (s *rateLimitState) markExhausted(resetAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exhausted = true
	s.resetAt = resetAt
}

// limitedNow reports whether requests should be held back right now.
func (s *rateLimitState) limitedNow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exhausted && time.Now().Before(s.resetAt)
}

// untilReset returns how long the current window has left. Zero when
// not exhausted or already past the reset.
func (s *rateLimitState) untilReset() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exhausted {
		return 0
	}
	if d := time.Until(s.resetAt); d > 0 {
		return d
	}
	return 0
}
