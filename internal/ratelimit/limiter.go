// Package ratelimit provides per-key token bucket rate limiting for HTTP
// clients and MCP tools.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrLimited is wrapped by errors returned when a request is rate limited.
var ErrLimited = errors.New("rate limit exceeded")

// Limiter implements a per-key token bucket rate limiter.
// Each key (a client address or tool name) gets its own bucket with the
// configured rate and burst. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // max burst size (also initial token count)
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// The burst size also serves as the initial number of tokens available.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// PerMinute creates a limiter allowing n requests per minute with the given burst.
func PerMinute(n int, burst int) *Limiter {
	return NewLimiter(float64(n)/60.0, burst)
}

// Allow reports whether a request for key may proceed, consuming one token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			tokens:    float64(l.burst),
			lastCheck: now,
		}
		l.buckets[key] = b
	}

	elapsed := now.Sub(b.lastCheck).Seconds()
	if elapsed > 0 {
		b.tokens += l.rate * elapsed
		if b.tokens > float64(l.burst) {
			b.tokens = float64(l.burst)
		}
		b.lastCheck = now
	}

	if b.tokens < 1.0 {
		return false
	}

	b.tokens--
	return true
}

// Prune drops buckets idle for longer than maxIdle and returns how many were
// removed. A bucket idle that long has refilled anyway, so dropping it does
// not change future decisions once maxIdle >= burst/rate.
func (l *Limiter) Prune(maxIdle time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	removed := 0
	for key, b := range l.buckets {
		if now.Sub(b.lastCheck) > maxIdle {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default per-tool limits for the dataset MCP tools.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"neuro_statistics":      NewLimiter(1.0, 10),      // 60/minute, burst 10
		"neuro_sessions":        NewLimiter(1.0, 10),      // 60/minute, burst 10
		"neuro_session_metrics": NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		"neuro_quality_average": NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		"neuro_best_run":        NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
	}
}

// CheckLimit checks the rate limit for a given tool name.
// Returns nil if allowed, or an error wrapping ErrLimited if not.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}

	if !limiter.Allow(toolName) {
		return fmt.Errorf("%w for %s, please try again shortly", ErrLimited, toolName)
	}

	return nil
}
