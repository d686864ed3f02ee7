package reminders

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const DefaultInterval = 30 * time.Second

// Scheduler fires reminder notifications while the client runs.
type Scheduler struct {
	store    Store
	notify   func(Notification)
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu    sync.Mutex
	fired map[string]bool
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

func NewScheduler(store Store, notify func(Notification), opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    store,
		notify:   notify,
		interval: DefaultInterval,
		now:      time.Now,
		logger:   slog.Default(),
		fired:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run cleans up stale reminders, then checks for due notifications every
// interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Reminder scheduler started", "interval", s.interval)
	if n, err := Cleanup(ctx, s.store, s.now()); err != nil {
		s.logger.Error("Failed to clean up reminders", "error", err)
	} else if n > 0 {
		s.logger.Info("Removed stale reminders", "count", n)
	}
	s.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reminder scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick fires every notification that has come due within the grace period
// and has not fired yet. A recurring reminder that fires its due
// notification is moved to its next occurrence.
func (s *Scheduler) Tick(ctx context.Context) {
	list, err := s.store.ListReminders(ctx)
	if err != nil {
		s.logger.Error("Failed to list reminders", "error", err)
		return
	}
	now := s.now()

	for _, r := range list {
		for _, n := range Plan(r, now) {
			if n.At.After(now) || !s.claim(n) {
				continue
			}
			if n.Kind == DueNow && !r.LastTriggered.Before(n.At) {
				continue
			}
			s.notify(n)

			if n.Kind != DueNow {
				continue
			}
			r.LastTriggered = now
			if r.IsRecurring && r.RepeatInterval > 0 {
				r.Due = n.At.AddDate(0, 0, r.RepeatInterval)
			}
			if err := s.store.UpdateReminder(ctx, &r); err != nil {
				s.logger.Error("Failed to update reminder", "id", r.ID, "error", err)
			}
		}
	}
}

// claim marks n as fired and reports whether it had not fired before.
func (s *Scheduler) claim(n Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := n.key()
	if s.fired[k] {
		return false
	}
	s.fired[k] = true
	return true
}
