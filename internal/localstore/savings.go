package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/verdant/internal/events"
	"github.com/mmynk/verdant/internal/models"
)

// ErrInsufficientSavings is returned when a withdrawal exceeds the fund.
var ErrInsufficientSavings = errors.New("withdrawal exceeds emergency fund")

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readSettings(ctx context.Context, q querier) (models.Settings, error) {
	var (
		st                    models.Settings
		budget, goal, current string
	)
	err := q.QueryRowContext(ctx,
		`SELECT monthly_budget, emergency_fund_goal, emergency_fund_current, user_name FROM settings WHERE id = 1`,
	).Scan(&budget, &goal, &current, &st.UserName)
	if err != nil {
		return st, fmt.Errorf("failed to read settings: %w", err)
	}
	for _, f := range []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&st.MonthlyBudget, budget},
		{&st.EmergencyFundGoal, goal},
		{&st.EmergencyFundCurrent, current},
	} {
		if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
			return st, fmt.Errorf("settings hold invalid amount %q: %w", f.raw, err)
		}
	}
	return st, nil
}

func (s *Store) Settings(ctx context.Context) (models.Settings, error) {
	return readSettings(ctx, s.db)
}

// UpdateSettings rewrites the settings row.
func (s *Store) UpdateSettings(ctx context.Context, st models.Settings) error {
	if st.MonthlyBudget.IsNegative() || st.EmergencyFundGoal.IsNegative() {
		return fmt.Errorf("budget and goal must not be negative")
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE settings SET monthly_budget = ?, emergency_fund_goal = ?, emergency_fund_current = ?, user_name = ? WHERE id = 1`,
		st.MonthlyBudget.String(), st.EmergencyFundGoal.String(), st.EmergencyFundCurrent.String(), st.UserName,
	)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	s.bus.Publish(events.Settings)
	return nil
}

// AddSavings records tx and applies it to the emergency fund in one
// transaction: deposits and withdrawals move the current amount, a goal
// update replaces the goal. It returns the resulting settings.
func (s *Store) AddSavings(ctx context.Context, tx *models.SavingsTransaction) (models.Settings, error) {
	if !tx.Type.Valid() {
		return models.Settings{}, fmt.Errorf("invalid savings type %q", tx.Type)
	}
	if !tx.Amount.IsPositive() {
		return models.Settings{}, fmt.Errorf("savings amount must be positive")
	}
	if tx.Date.IsZero() {
		tx.Date = s.now()
	}

	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbtx.Rollback()

	st, err := readSettings(ctx, dbtx)
	if err != nil {
		return st, err
	}
	switch tx.Type {
	case models.SavingsDeposit:
		st.EmergencyFundCurrent = st.EmergencyFundCurrent.Add(tx.Amount)
	case models.SavingsWithdrawal:
		if tx.Amount.GreaterThan(st.EmergencyFundCurrent) {
			return st, fmt.Errorf("%w: %s > %s", ErrInsufficientSavings, tx.Amount, st.EmergencyFundCurrent)
		}
		st.EmergencyFundCurrent = st.EmergencyFundCurrent.Sub(tx.Amount)
	case models.SavingsGoalUpdate:
		st.EmergencyFundGoal = tx.Amount
	}

	if _, err := dbtx.ExecContext(ctx,
		`UPDATE settings SET emergency_fund_goal = ?, emergency_fund_current = ? WHERE id = 1`,
		st.EmergencyFundGoal.String(), st.EmergencyFundCurrent.String(),
	); err != nil {
		return st, fmt.Errorf("failed to update emergency fund: %w", err)
	}
	res, err := dbtx.ExecContext(ctx,
		`INSERT INTO savings_transactions (amount, date, type, note) VALUES (?, ?, ?, ?)`,
		tx.Amount.String(), tx.Date.UnixMilli(), tx.Type, tx.Note,
	)
	if err != nil {
		return st, fmt.Errorf("failed to insert savings transaction: %w", err)
	}
	if tx.ID, err = res.LastInsertId(); err != nil {
		return st, fmt.Errorf("failed to read savings transaction id: %w", err)
	}
	if err := dbtx.Commit(); err != nil {
		return st, fmt.Errorf("failed to commit savings: %w", err)
	}

	s.bus.Publish(events.Savings)
	s.bus.Publish(events.Settings)
	return st, nil
}

// ListSavings returns the emergency fund history, newest first.
func (s *Store) ListSavings(ctx context.Context) ([]models.SavingsTransaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, amount, date, type, note FROM savings_transactions ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list savings: %w", err)
	}
	defer rows.Close()

	var out []models.SavingsTransaction
	for rows.Next() {
		var (
			tx     models.SavingsTransaction
			amount string
			date   int64
		)
		if err := rows.Scan(&tx.ID, &amount, &date, &tx.Type, &tx.Note); err != nil {
			return nil, fmt.Errorf("failed to scan savings transaction: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("savings transaction %d has invalid amount %q: %w", tx.ID, amount, err)
		}
		tx.Date = time.UnixMilli(date)
		out = append(out, tx)
	}
	return out, rows.Err()
}
