package models

import (
	"testing"
	"time"
)

func TestReminder_NextDue(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		r    Reminder
		want time.Time
	}{
		{
			name: "one-off keeps its date",
			r:    Reminder{Due: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)},
			want: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "monthly advanced past today",
			r:    Reminder{Due: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), IsRecurring: true, RepeatInterval: 30},
			want: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC).AddDate(0, 0, 30),
		},
		{
			name: "earlier today is not advanced",
			r:    Reminder{Due: time.Date(2026, 3, 7, 8, 0, 0, 0, time.UTC), IsRecurring: true, RepeatInterval: 7},
			want: time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "recurring without interval",
			r:    Reminder{Due: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC), IsRecurring: true},
			want: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.NextDue(now); !got.Equal(tt.want) {
				t.Errorf("NextDue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReminder_IsStale(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		r    Reminder
		want bool
	}{
		{"yesterday", Reminder{Due: now.AddDate(0, 0, -1)}, true},
		{"earlier today", Reminder{Due: now.Add(-11 * time.Hour)}, false},
		{"tomorrow", Reminder{Due: now.AddDate(0, 0, 1)}, false},
		{"recurring", Reminder{Due: now.AddDate(0, -2, 0), IsRecurring: true, RepeatInterval: 30}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.IsStale(now); got != tt.want {
				t.Errorf("IsStale = %v, want %v", got, tt.want)
			}
		})
	}
}
