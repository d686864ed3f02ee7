package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/storage"
)

const memberColumns = `id, group_id, user_id, role, member_name, member_email, joined_at`

func insertMember(ctx context.Context, tx *sql.Tx, m *models.Member) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO group_members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.GroupID, m.UserID, m.Role, m.Name, m.Email, m.JoinedAt,
	)
	return err
}

// AddMember adds a user to a group.
func (s *SQLiteStore) AddMember(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.Role == "" {
		member.Role = models.RoleMember
	}
	if member.JoinedAt == 0 {
		member.JoinedAt = time.Now().UnixMilli()
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return insertMember(ctx, tx, member)
	})
	if IsUniqueViolation(err) {
		return fmt.Errorf("%w: user %s in group %s", storage.ErrConflict, member.UserID, member.GroupID)
	}
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// GetMember retrieves userID's membership of groupID.
func (s *SQLiteStore) GetMember(ctx context.Context, groupID, userID string) (*models.Member, error) {
	return s.getMember(ctx,
		`SELECT `+memberColumns+` FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
}

// GetMemberByID retrieves a membership by its own ID.
func (s *SQLiteStore) GetMemberByID(ctx context.Context, memberID string) (*models.Member, error) {
	return s.getMember(ctx, `SELECT `+memberColumns+` FROM group_members WHERE id = ?`, memberID)
}

func (s *SQLiteStore) getMember(ctx context.Context, query string, args ...any) (*models.Member, error) {
	var m models.Member
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.Name, &m.Email, &m.JoinedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: member %v", storage.ErrNotFound, args)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &m, nil
}

// ListMembers retrieves all members of a group in join order.
func (s *SQLiteStore) ListMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM group_members WHERE group_id = ? ORDER BY joined_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.GroupID, &m.UserID, &m.Role, &m.Name, &m.Email, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// DeleteMember removes a membership by ID.
func (s *SQLiteStore) DeleteMember(ctx context.Context, memberID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM group_members WHERE id = ?`, memberID)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: member %s", storage.ErrNotFound, memberID)
	}
	return nil
}
