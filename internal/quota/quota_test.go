package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type memKV struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestLimiter_DailyLimit(t *testing.T) {
	kv := &memKV{data: map[string][]byte{}}
	c := &clock{t: time.Date(2026, 3, 14, 22, 30, 0, 0, time.UTC)}
	l := NewScanLimiter(kv, WithClock(c.now))
	ctx := context.Background()

	for want := 2; want >= 0; want-- {
		if err := l.Allow(ctx); err != nil {
			t.Fatalf("Allow: %v", err)
		}
		left, err := l.Consume(ctx)
		if err != nil {
			t.Fatalf("Consume: %v", err)
		}
		if left != want {
			t.Errorf("left = %d, want %d", left, want)
		}
	}

	if err := l.Allow(ctx); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Allow err = %v, want ErrQuotaExceeded", err)
	}
	if _, err := l.Consume(ctx); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Consume err = %v, want ErrQuotaExceeded", err)
	}
	if got := string(kv.data["scan_usage_2026-03-14"]); got != "3" {
		t.Errorf("stored count = %q, want 3", got)
	}

	// A new UTC day starts from zero.
	c.t = l.ResetAt()
	if left, err := l.Remaining(ctx); err != nil || left != 3 {
		t.Errorf("remaining after reset = %d, %v", left, err)
	}
}

func TestLimiter_ResetAt(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	tests := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		{time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC), time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)},
		// 02:00 IST on the 5th is still the 4th in UTC.
		{time.Date(2026, 6, 5, 2, 0, 0, 0, ist), time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		l := New(&memKV{data: map[string][]byte{}}, "x", WithClock(func() time.Time { return tt.now }))
		if got := l.ResetAt(); !got.Equal(tt.want) {
			t.Errorf("ResetAt(%v) = %v, want %v", tt.now, got, tt.want)
		}
	}
}

func TestLimiter_CorruptCounterCountsAsZero(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	kv := &memKV{data: map[string][]byte{"scan_usage_2026-03-14": []byte("lots")}}
	l := NewScanLimiter(kv, WithClock(func() time.Time { return now }), WithLimit(5))

	left, err := l.Remaining(context.Background())
	if err != nil || left != 5 {
		t.Errorf("remaining = %d, %v", left, err)
	}
}
