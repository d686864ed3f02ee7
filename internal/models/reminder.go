package models

import "time"

// Reminder is a scheduled personal notification, such as a bill due date.
type Reminder struct {
	ID    int64
	Title string
	Due   time.Time

	// IsRecurring reminders are moved forward by RepeatInterval days instead
	// of being cleaned up once they are overdue.
	IsRecurring bool

	// RepeatInterval is the number of days between repetitions (e.g. 30 for
	// monthly). Only meaningful when IsRecurring is set.
	RepeatInterval int

	// LastTriggered is when the reminder last fired a notification.
	LastTriggered time.Time
}

// IsStale reports whether r is overdue and will never fire again.
// A reminder due earlier today is not stale.
func (r *Reminder) IsStale(now time.Time) bool {
	return !r.IsRecurring && r.Due.Before(StartOfDay(now))
}

// NextDue returns the first occurrence of r at or after the start of now's
// day. Non-recurring reminders keep their due date.
func (r *Reminder) NextDue(now time.Time) time.Time {
	if !r.IsRecurring || r.RepeatInterval <= 0 {
		return r.Due
	}
	due := r.Due
	today := StartOfDay(now)
	for due.Before(today) {
		due = due.AddDate(0, 0, r.RepeatInterval)
	}
	return due
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
