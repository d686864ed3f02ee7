package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/verdant/internal/events"
	"github.com/mmynk/verdant/internal/models"
)

const reminderColumns = `id, title, due, is_recurring, repeat_interval, last_triggered`

// AddReminder stores r and sets its ID.
func (s *Store) AddReminder(ctx context.Context, r *models.Reminder) error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("reminder title required")
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reminders (title, due, is_recurring, repeat_interval, last_triggered) VALUES (?, ?, ?, ?, ?)`,
		r.Title, r.Due.UnixMilli(), r.IsRecurring, r.RepeatInterval, millis(r.LastTriggered),
	)
	if err != nil {
		return fmt.Errorf("failed to insert reminder: %w", err)
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read reminder id: %w", err)
	}
	s.bus.Publish(events.Reminders)
	return nil
}

// ListReminders returns every reminder ordered by due date.
func (s *Store) ListReminders(ctx context.Context) ([]models.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+reminderColumns+` FROM reminders ORDER BY due, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var out []models.Reminder
	for rows.Next() {
		var (
			r         models.Reminder
			due       int64
			triggered sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Title, &due, &r.IsRecurring, &r.RepeatInterval, &triggered); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		r.Due = time.UnixMilli(due)
		r.LastTriggered = fromMillis(triggered)
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateReminder rewrites the stored fields of r.
func (s *Store) UpdateReminder(ctx context.Context, r *models.Reminder) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reminders SET title = ?, due = ?, is_recurring = ?, repeat_interval = ?, last_triggered = ? WHERE id = ?`,
		r.Title, r.Due.UnixMilli(), r.IsRecurring, r.RepeatInterval, millis(r.LastTriggered), r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update reminder: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("reminder", r.ID)
	}
	s.bus.Publish(events.Reminders)
	return nil
}

// DeleteReminders removes the given reminders. Unknown IDs are ignored.
func (s *Store) DeleteReminders(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reminders WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to delete reminders: %w", err)
	}
	s.bus.Publish(events.Reminders)
	return nil
}
