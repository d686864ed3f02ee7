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

const goalColumns = `id, group_id, title, description, target_amount, current_amount, currency, status,
	created_by, created_by_name, created_at, updated_at`

func scanGoal(row rowScanner) (models.Goal, error) {
	var g models.Goal
	var desc sql.NullString
	err := row.Scan(
		&g.ID, &g.GroupID, &g.Title, &desc, &g.TargetAmount, &g.CurrentAmount, &g.Currency, &g.Status,
		&g.CreatedBy, &g.CreatedByName, &g.CreatedAt, &g.UpdatedAt,
	)
	g.Description = desc.String
	return g, err
}

// CreateGoal persists a new savings goal.
func (s *SQLiteStore) CreateGoal(ctx context.Context, goal *models.Goal) error {
	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}
	if goal.CreatedAt == 0 {
		goal.CreatedAt = time.Now().UnixMilli()
	}
	goal.UpdatedAt = goal.CreatedAt
	if goal.Status == "" {
		goal.Status = models.GoalActive
	}
	if goal.Currency == "" {
		goal.Currency = "INR"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO group_goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID, goal.GroupID, goal.Title, nullString(goal.Description), goal.TargetAmount, goal.CurrentAmount,
		goal.Currency, goal.Status, goal.CreatedBy, goal.CreatedByName, goal.CreatedAt, goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	return nil
}

// GetGoal retrieves a goal by ID, without contributions.
func (s *SQLiteStore) GetGoal(ctx context.Context, goalID string) (*models.Goal, error) {
	return getGoal(ctx, s.db, goalID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getGoal(ctx context.Context, q queryRower, goalID string) (*models.Goal, error) {
	g, err := scanGoal(q.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM group_goals WHERE id = ?`, goalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: goal %s", storage.ErrNotFound, goalID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return &g, nil
}

// ListGoals retrieves a group's goals with their contributions.
func (s *SQLiteStore) ListGoals(ctx context.Context, groupID string) ([]models.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM group_goals WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	goals := []models.Goal{}
	index := make(map[string]int)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		index[g.ID] = len(goals)
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate goals: %w", err)
	}
	rows.Close()

	contribRows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.goal_id, c.user_id, c.user_name, c.amount, c.note, c.contributed_at
		 FROM goal_contributions c JOIN group_goals g ON g.id = c.goal_id
		 WHERE g.group_id = ?
		 ORDER BY c.contributed_at DESC, c.id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list contributions: %w", err)
	}
	defer contribRows.Close()

	for contribRows.Next() {
		var c models.Contribution
		var note sql.NullString
		if err := contribRows.Scan(&c.ID, &c.GoalID, &c.UserID, &c.UserName, &c.Amount, &note, &c.ContributedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contribution: %w", err)
		}
		c.Note = note.String
		if i, ok := index[c.GoalID]; ok {
			goals[i].Contributions = append(goals[i].Contributions, c)
		}
	}
	if err := contribRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate contributions: %w", err)
	}
	return goals, nil
}

// DeleteGoal removes a goal and its contributions.
func (s *SQLiteStore) DeleteGoal(ctx context.Context, goalID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM group_goals WHERE id = ?`, goalID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: goal %s", storage.ErrNotFound, goalID)
	}
	return nil
}

// AddContribution records a contribution and updates the goal's running total.
func (s *SQLiteStore) AddContribution(ctx context.Context, c *models.Contribution) (*models.Goal, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.ContributedAt == 0 {
		c.ContributedAt = time.Now().UnixMilli()
	}

	var goal *models.Goal
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		g, err := getGoal(ctx, tx, c.GoalID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO goal_contributions (id, goal_id, user_id, user_name, amount, note, contributed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.GoalID, c.UserID, c.UserName, c.Amount, nullString(c.Note), c.ContributedAt,
		); err != nil {
			return fmt.Errorf("failed to insert contribution: %w", err)
		}

		g.CurrentAmount = g.CurrentAmount.Add(c.Amount)
		g.UpdatedAt = c.ContributedAt
		if g.Status == models.GoalActive && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount) {
			g.Status = models.GoalCompleted
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE group_goals SET current_amount = ?, status = ?, updated_at = ? WHERE id = ?`,
			g.CurrentAmount, g.Status, g.UpdatedAt, g.ID,
		); err != nil {
			return fmt.Errorf("failed to update goal: %w", err)
		}
		goal = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return goal, nil
}
