// Package reminders selects, cleans up and fires personal reminders.
package reminders

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/mmynk/verdant/internal/models"
)

const (
	// Horizon is how far ahead notifications are scheduled.
	Horizon = 2147483647 * time.Millisecond

	// Grace is how late a notification may still fire.
	Grace = time.Minute

	// DefaultUpcoming is how many reminders the home screen shows.
	DefaultUpcoming = 3
)

// Store is the reminder storage. *localstore.Store implements it.
type Store interface {
	ListReminders(ctx context.Context) ([]models.Reminder, error)
	UpdateReminder(ctx context.Context, r *models.Reminder) error
	DeleteReminders(ctx context.Context, ids ...int64) error
}

// Upcoming returns up to n reminders due today or later, soonest first.
// Recurring reminders are placed at their next occurrence.
func Upcoming(list []models.Reminder, now time.Time, n int) []models.Reminder {
	today := models.StartOfDay(now)
	var out []models.Reminder
	for _, r := range list {
		r.Due = r.NextDue(now)
		if !r.Due.Before(today) {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Reminder) int {
		return a.Due.Compare(b.Due)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Cleanup deletes overdue non-recurring reminders and returns how many were
// removed.
func Cleanup(ctx context.Context, store Store, now time.Time) (int, error) {
	list, err := store.ListReminders(ctx)
	if err != nil {
		return 0, err
	}
	var stale []int64
	for _, r := range list {
		if r.IsStale(now) {
			stale = append(stale, r.ID)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	if err := store.DeleteReminders(ctx, stale...); err != nil {
		return 0, fmt.Errorf("cleanup reminders: %w", err)
	}
	return len(stale), nil
}

// Kind is which of a reminder's notifications this is.
type Kind int

const (
	// DueSoon fires one day before the due time.
	DueSoon Kind = iota
	// DueNow fires at the due time.
	DueNow
)

// Notification is a scheduled alert for a reminder.
type Notification struct {
	ReminderID int64
	Kind       Kind
	At         time.Time
	Title      string
	Body       string
}

func (n Notification) key() string {
	return fmt.Sprintf("%d/%d/%d", n.ReminderID, n.Kind, n.At.UnixMilli())
}

// Plan returns the notifications for r's next occurrence that are still
// worth scheduling at now: not more than Grace in the past and not more
// than Horizon ahead.
func Plan(r models.Reminder, now time.Time) []Notification {
	due := r.NextDue(now)
	var out []Notification

	soon := due.Add(-24 * time.Hour)
	if soon.After(now) && soon.Sub(now) <= Horizon {
		out = append(out, Notification{
			ReminderID: r.ID,
			Kind:       DueSoon,
			At:         soon,
			Title:      "Upcoming: " + r.Title,
			Body:       "Due tomorrow.",
		})
	}
	if !due.Before(now.Add(-Grace)) && due.Sub(now) <= Horizon {
		out = append(out, Notification{
			ReminderID: r.ID,
			Kind:       DueNow,
			At:         due,
			Title:      "Due Today: " + r.Title,
			Body:       "Payment is due today.",
		})
	}
	return out
}

// Pending returns every notification scheduled for list, earliest first.
func Pending(list []models.Reminder, now time.Time) []Notification {
	var out []Notification
	for _, r := range list {
		out = append(out, Plan(r, now)...)
	}
	slices.SortStableFunc(out, func(a, b Notification) int {
		return cmp.Or(a.At.Compare(b.At), cmp.Compare(a.ReminderID, b.ReminderID))
	})
	return out
}
