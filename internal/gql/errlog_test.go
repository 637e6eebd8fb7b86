package gql

import (
	"context"
	"log/slog"
	"testing"
	"time"
)

type countingHandler struct {
	count *int
}

func (h countingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h countingHandler) Handle(context.Context, slog.Record) error {
	*h.count++
	return nil
}
func (h countingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h countingHandler) WithGroup(string) slog.Handler      { return h }

func withCountingLogger(t *testing.T) *int {
	t.Helper()
	prev := slog.Default()
	count := 0
	slog.SetDefault(slog.New(countingHandler{count: &count}))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &count
}

func TestErrorRateLimiterSuppressesRepeatedMessageWithinTTL(t *testing.T) {
	count := withCountingLogger(t)
	l := newErrorRateLimiter(time.Hour)

	l.logf("ClaimDrop", "connection refused", "GQL call failed")
	l.logf("ClaimDrop", "connection refused", "GQL call failed")
	l.logf("ClaimDrop", "connection refused", "GQL call failed")

	if *count != 1 {
		t.Errorf("log calls = %d, want 1 (repeats within TTL suppressed)", *count)
	}
}

func TestErrorRateLimiterLogsDistinctMessagesSeparately(t *testing.T) {
	count := withCountingLogger(t)
	l := newErrorRateLimiter(time.Hour)

	l.logf("ClaimDrop", "connection refused", "GQL call failed")
	l.logf("ClaimDrop", "status 503", "GQL call failed")
	l.logf("JoinRaid", "connection refused", "GQL call failed")

	if *count != 3 {
		t.Errorf("log calls = %d, want 3 (distinct operation/message pairs each log)", *count)
	}
}

func TestErrorRateLimiterLogsAgainAfterTTLExpires(t *testing.T) {
	count := withCountingLogger(t)
	l := newErrorRateLimiter(time.Millisecond)

	l.logf("ClaimDrop", "connection refused", "GQL call failed")
	time.Sleep(5 * time.Millisecond)
	l.logf("ClaimDrop", "connection refused", "GQL call failed")

	if *count != 2 {
		t.Errorf("log calls = %d, want 2 (TTL elapsed between calls)", *count)
	}
}
