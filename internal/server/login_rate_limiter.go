package server

import (
	"sync"
	"time"
)

const (
	defaultLoginMaxFailures = 5
	defaultLoginWindow      = 5 * time.Minute
	defaultLoginBlock       = 15 * time.Minute
	loginPruneInterval      = time.Minute
)

// loginRateLimiter blocks an ip+login pair after repeated failed logins.
// A nil limiter allows everything.
type loginRateLimiter struct {
	mu          sync.Mutex
	attempts    map[string]loginAttempts
	maxFailures int
	window      time.Duration
	blockFor    time.Duration
	lastPrune   time.Time
}

type loginAttempts struct {
	failures     int
	windowStart  time.Time
	blockedUntil time.Time
	lastSeen     time.Time
}

func newLoginRateLimiter(maxFailures int, window, blockFor time.Duration) *loginRateLimiter {
	if maxFailures <= 0 || window <= 0 || blockFor <= 0 {
		return nil
	}
	return &loginRateLimiter{
		attempts:    make(map[string]loginAttempts),
		maxFailures: maxFailures,
		window:      window,
		blockFor:    blockFor,
	}
}

// Allow reports whether key may attempt a login at now.
func (l *loginRateLimiter) Allow(key string, now time.Time) bool {
	if l == nil || key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.pruneLocked(now)

	entry, ok := l.attempts[key]
	if !ok {
		return true
	}
	entry.lastSeen = now
	l.attempts[key] = entry
	return !now.Before(entry.blockedUntil)
}

// RegisterFailure counts a failed attempt and starts a block once the window fills up.
func (l *loginRateLimiter) RegisterFailure(key string, now time.Time) {
	if l == nil || key == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.attempts[key]
	if entry.windowStart.IsZero() || now.Sub(entry.windowStart) > l.window {
		entry.failures = 0
		entry.windowStart = now
	}
	entry.failures++
	entry.lastSeen = now
	if entry.failures >= l.maxFailures {
		entry.blockedUntil = now.Add(l.blockFor)
		entry.failures = 0
		entry.windowStart = time.Time{}
	}
	l.attempts[key] = entry
}

// Reset forgets key after a successful login.
func (l *loginRateLimiter) Reset(key string) {
	if l == nil || key == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
}

func (l *loginRateLimiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < loginPruneInterval {
		return
	}
	l.lastPrune = now

	staleAfter := max(l.window, l.blockFor) * 2
	for key, entry := range l.attempts {
		if now.Before(entry.blockedUntil) {
			continue
		}
		if now.Sub(entry.lastSeen) > staleAfter {
			delete(l.attempts, key)
		}
	}
}
