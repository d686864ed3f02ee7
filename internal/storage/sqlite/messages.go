package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/verdant/internal/models"
)

const messageColumns = `id, group_id, user_id, user_name, content, created_at`

// CreateMessage persists a chat message.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt == 0 {
		msg.CreatedAt = time.Now().UnixMilli()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO group_messages (`+messageColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.GroupID, msg.UserID, msg.UserName, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListMessages retrieves a group's chat history, oldest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, groupID string) ([]models.Message, error) {
	return s.queryMessages(ctx,
		`SELECT `+messageColumns+` FROM group_messages WHERE group_id = ? ORDER BY created_at, rowid`,
		groupID,
	)
}

// GetMessages retrieves the given messages in creation order.
func (s *SQLiteStore) GetMessages(ctx context.Context, messageIDs []string) ([]models.Message, error) {
	if len(messageIDs) == 0 {
		return []models.Message{}, nil
	}
	in, args := inClause(messageIDs)
	return s.queryMessages(ctx,
		`SELECT `+messageColumns+` FROM group_messages WHERE id IN `+in+` ORDER BY created_at, rowid`,
		args...,
	)
}

func (s *SQLiteStore) queryMessages(ctx context.Context, query string, args ...any) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.UserName, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return msgs, nil
}

// DeleteMessages removes the given messages.
func (s *SQLiteStore) DeleteMessages(ctx context.Context, messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	in, args := inClause(messageIDs)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM group_messages WHERE id IN `+in, args...); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	return nil
}
