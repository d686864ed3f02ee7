package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/storage"
)

const expenseColumns = `id, group_id, title, amount, category, payment_mode, type, paid_by, user_id, date, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (models.Expense, error) {
	var e models.Expense
	err := row.Scan(
		&e.ID, &e.GroupID, &e.Title, &e.Amount, &e.Category, &e.PaymentMode,
		&e.Type, &e.PaidBy, &e.UserID, &e.Date, &e.CreatedAt,
	)
	return e, err
}

// CreateExpense persists a new group expense.
func (s *SQLiteStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().UnixMilli()
	}
	if e.Date == 0 {
		e.Date = e.CreatedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GroupID, e.Title, e.Amount, e.Category, e.PaymentMode,
		e.Type, e.PaidBy, e.UserID, e.Date, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID, without reactions.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	e, err := scanExpense(s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, expenseID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: expense %s", storage.ErrNotFound, expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return &e, nil
}

// UpdateExpense changes an expense's title and amount.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expenseID, title string, amount decimal.Decimal) (*models.Expense, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET title = ?, amount = ? WHERE id = ?`,
		title, amount, expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("%w: expense %s", storage.ErrNotFound, expenseID)
	}
	return s.GetExpense(ctx, expenseID)
}

// DeleteExpense removes an expense and its reactions.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: expense %s", storage.ErrNotFound, expenseID)
	}
	return nil
}

// ListExpenses retrieves a group's expenses with their reactions.
func (s *SQLiteStore) ListExpenses(ctx context.Context, groupID string) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	index := make(map[string]int)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		index[e.ID] = len(expenses)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	// Reactions are loaded in one pass and attached by expense ID.
	reactRows, err := s.db.QueryContext(ctx,
		`SELECT r.expense_id, r.user_id, r.reaction_type
		 FROM expense_reactions r JOIN expenses e ON e.id = r.expense_id
		 WHERE e.group_id = ?
		 ORDER BY r.created_at, r.user_id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reactions: %w", err)
	}
	defer reactRows.Close()

	for reactRows.Next() {
		var r models.Reaction
		if err := reactRows.Scan(&r.ExpenseID, &r.UserID, &r.Kind); err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		if i, ok := index[r.ExpenseID]; ok {
			expenses[i].Reactions = append(expenses[i].Reactions, r)
		}
	}
	if err := reactRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reactions: %w", err)
	}
	return expenses, nil
}

// ToggleReaction applies, replaces or removes a user's reaction on an expense.
func (s *SQLiteStore) ToggleReaction(ctx context.Context, expenseID, userID string, kind models.ReactionKind) (*models.Reaction, error) {
	var result *models.Reaction
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var current models.ReactionKind
		err := tx.QueryRowContext(ctx,
			`SELECT reaction_type FROM expense_reactions WHERE expense_id = ? AND user_id = ?`,
			expenseID, userID,
		).Scan(&current)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to read reaction: %w", err)
		}

		if current == kind {
			_, err := tx.ExecContext(ctx,
				`DELETE FROM expense_reactions WHERE expense_id = ? AND user_id = ?`,
				expenseID, userID,
			)
			if err != nil {
				return fmt.Errorf("failed to remove reaction: %w", err)
			}
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO expense_reactions (expense_id, user_id, reaction_type, created_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (expense_id, user_id) DO UPDATE SET reaction_type = excluded.reaction_type`,
			expenseID, userID, kind, time.Now().UnixMilli(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert reaction: %w", err)
		}
		result = &models.Reaction{ExpenseID: expenseID, UserID: userID, Kind: kind}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
