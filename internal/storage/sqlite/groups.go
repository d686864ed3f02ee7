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

const groupColumns = `id, name, join_code, created_by, created_at, updated_at`

// joinCodeAttempts bounds retries when a freshly generated join code collides.
const joinCodeAttempts = 5

// CreateGroup persists a new group and its owner membership.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group, owner *models.Member) error {
	now := time.Now().UnixMilli()
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = now
	}
	group.UpdatedAt = group.CreatedAt

	owner.GroupID = group.ID
	owner.Role = models.RoleAdmin
	if owner.ID == "" {
		owner.ID = uuid.New().String()
	}
	if owner.JoinedAt == 0 {
		owner.JoinedAt = now
	}

	generated := group.JoinCode == ""
	for attempt := 0; ; attempt++ {
		if generated {
			code, err := newJoinCode()
			if err != nil {
				return err
			}
			group.JoinCode = code
		}

		err := s.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO groups (`+groupColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
				group.ID, group.Name, group.JoinCode, group.CreatedBy, group.CreatedAt, group.UpdatedAt,
			); err != nil {
				return err
			}
			return insertMember(ctx, tx, owner)
		})
		if err == nil {
			return nil
		}
		if IsUniqueViolation(err) && generated && attempt+1 < joinCodeAttempts {
			continue
		}
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: group %s", storage.ErrConflict, group.ID)
		}
		return fmt.Errorf("failed to create group: %w", err)
	}
}

// GetGroup retrieves a group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.getGroup(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = ?`, groupID)
}

// GetGroupByJoinCode retrieves a group by its join code.
func (s *SQLiteStore) GetGroupByJoinCode(ctx context.Context, code string) (*models.Group, error) {
	return s.getGroup(ctx, `SELECT `+groupColumns+` FROM groups WHERE join_code = ?`, code)
}

func (s *SQLiteStore) getGroup(ctx context.Context, query, arg string) (*models.Group, error) {
	g := &models.Group{}
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&g.ID, &g.Name, &g.JoinCode, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: group %s", storage.ErrNotFound, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// ListGroupsForUser retrieves the groups a user belongs to.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.join_code, g.created_by, g.created_at, g.updated_at
		 FROM groups g JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ?
		 ORDER BY g.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	groups := []models.Group{}
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.JoinCode, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// RenameGroup changes a group's display name.
func (s *SQLiteStore) RenameGroup(ctx context.Context, groupID, name string) (*models.Group, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE groups SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UnixMilli(), groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to rename group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: group %s", storage.ErrNotFound, groupID)
	}
	return s.GetGroup(ctx, groupID)
}

// DeleteGroup removes a group by ID.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: group %s", storage.ErrNotFound, groupID)
	}
	return nil
}
