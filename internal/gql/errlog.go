package gql

import (
	"log/slog"
	"sync"
	"time"
)

// errorRateLimiter suppresses repeated slog output for the same
// operation+message pair within a TTL window, so a GQL endpoint that is
// down for minutes doesn't flood the log with one line per retry.
type errorRateLimiter struct {
	ttl time.Duration
	mu  sync.Mutex

	seen map[string]time.Time
}

func newErrorRateLimiter(ttl time.Duration) errorRateLimiter {
	return errorRateLimiter{ttl: ttl, seen: make(map[string]time.Time)}
}

func (l *errorRateLimiter) logf(operation, message, logMsg string, args ...any) {
	key := operation + "\x00" + message

	l.mu.Lock()
	last, ok := l.seen[key]
	now := time.Now()
	suppress := ok && now.Sub(last) < l.ttl
	if !suppress {
		l.seen[key] = now
	}
	l.mu.Unlock()

	if suppress {
		return
	}
	slog.Warn(logMsg, args...)
}
