// Package quota limits how often a metered feature may be used per day.
package quota

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// DefaultDailyLimit is the number of receipt scans allowed per day.
const DefaultDailyLimit = 3

var ErrQuotaExceeded = errors.New("daily limit reached")

// KV is where usage counters are kept.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Limiter counts uses per UTC day. The count resets at the next UTC
// midnight; old days' counters are left in place and never read again.
type Limiter struct {
	kv     KV
	prefix string
	limit  int
	now    func() time.Time

	mu sync.Mutex
}

type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithLimit sets the daily limit. Values below one are ignored.
func WithLimit(n int) Option {
	return func(l *Limiter) {
		if n > 0 {
			l.limit = n
		}
	}
}

// New creates a limiter storing counters under "<prefix>_<YYYY-MM-DD>".
func New(kv KV, prefix string, opts ...Option) *Limiter {
	l := &Limiter{kv: kv, prefix: prefix, limit: DefaultDailyLimit, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewScanLimiter creates the limiter for receipt scans.
func NewScanLimiter(kv KV, opts ...Option) *Limiter {
	return New(kv, "scan_usage", opts...)
}

func (l *Limiter) Limit() int { return l.limit }

// Key returns the counter key for the day containing t.
func (l *Limiter) Key(t time.Time) string {
	return l.prefix + "_" + t.UTC().Format(time.DateOnly)
}

// ResetAt is when today's count goes back to zero.
func (l *Limiter) ResetAt() time.Time {
	y, m, d := l.now().UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}

// Used returns today's count.
func (l *Limiter) Used(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used(ctx, l.Key(l.now()))
}

// Remaining returns how many uses are left today.
func (l *Limiter) Remaining(ctx context.Context) (int, error) {
	n, err := l.Used(ctx)
	if err != nil {
		return 0, err
	}
	return max(l.limit-n, 0), nil
}

// Allow returns ErrQuotaExceeded if no uses are left today. It does not
// consume anything.
func (l *Limiter) Allow(ctx context.Context) error {
	left, err := l.Remaining(ctx)
	if err != nil {
		return err
	}
	if left == 0 {
		return fmt.Errorf("%w: %d per day, resets at %s", ErrQuotaExceeded, l.limit, l.ResetAt().Format(time.RFC3339))
	}
	return nil
}

// Consume records one use and returns the number left. It fails with
// ErrQuotaExceeded, recording nothing, if the limit was already reached.
func (l *Limiter) Consume(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := l.Key(l.now())
	n, err := l.used(ctx, key)
	if err != nil {
		return 0, err
	}
	if n >= l.limit {
		return 0, ErrQuotaExceeded
	}
	if err := l.kv.Set(ctx, key, []byte(strconv.Itoa(n+1))); err != nil {
		return 0, fmt.Errorf("record usage: %w", err)
	}
	return l.limit - n - 1, nil
}

func (l *Limiter) used(ctx context.Context, key string) (int, error) {
	raw, ok, err := l.kv.Get(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("read usage: %w", err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil || n < 0 {
		slog.Warn("Ignoring corrupt usage counter", "key", key, "value", string(raw))
		return 0, nil
	}
	return n, nil
}
