package localstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/verdant/internal/events"
	"github.com/mmynk/verdant/internal/models"
)

// AddTransaction stores a personal ledger entry and sets its ID.
func (s *Store) AddTransaction(ctx context.Context, tx *models.Transaction) error {
	if strings.TrimSpace(tx.Title) == "" {
		return fmt.Errorf("transaction title required")
	}
	if tx.Type == "" {
		tx.Type = models.EntryExpense
	}
	if tx.PaymentMode == "" {
		tx.PaymentMode = models.PaymentCash
	}
	if tx.Date.IsZero() {
		tx.Date = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (title, amount, date, category, payment_mode, type) VALUES (?, ?, ?, ?, ?, ?)`,
		tx.Title, tx.Amount.String(), tx.Date.UnixMilli(), tx.Category, tx.PaymentMode, tx.Type,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	if tx.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to read transaction id: %w", err)
	}
	s.bus.Publish(events.Transactions)
	return nil
}

// ListTransactions returns ledger entries newest first.
func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, amount, date, category, payment_mode, type FROM transactions ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		var (
			tx     models.Transaction
			amount string
			date   int64
		)
		if err := rows.Scan(&tx.ID, &tx.Title, &amount, &date, &tx.Category, &tx.PaymentMode, &tx.Type); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %d has invalid amount %q: %w", tx.ID, amount, err)
		}
		tx.Date = time.UnixMilli(date)
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("transaction", id)
	}
	s.bus.Publish(events.Transactions)
	return nil
}
