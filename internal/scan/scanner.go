package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/offline"
	"github.com/mmynk/verdant/internal/quota"
)

var (
	// ErrNothingFound means the image was read but held no expenses. It does
	// not use up quota.
	ErrNothingFound = errors.New("no expenses found")

	// ErrUnavailable wraps extractor failures.
	ErrUnavailable = errors.New("scan service unavailable")
)

// Ledger stores accepted expenses and knows the user's categories.
// *localstore.Store implements it.
type Ledger interface {
	AddTransaction(ctx context.Context, tx *models.Transaction) error
	CategoryNames(ctx context.Context) ([]string, error)
}

// Scanner runs the scan flow: check connectivity and quota, extract,
// consume quota on success, then let the caller review and save.
type Scanner struct {
	extractor Extractor
	limiter   *quota.Limiter
	ledger    Ledger
	online    func() bool
	now       func() time.Time
}

// NewScanner creates a scanner. online may be nil, meaning always online.
func NewScanner(extractor Extractor, limiter *quota.Limiter, ledger Ledger, online func() bool) *Scanner {
	if online == nil {
		online = func() bool { return true }
	}
	return &Scanner{extractor: extractor, limiter: limiter, ledger: ledger, online: online, now: time.Now}
}

// Result is a successful scan.
type Result struct {
	Expenses  []models.Transaction
	RawText   string
	Remaining int
}

// Scan extracts expenses from imageData. The candidates are normalized into
// unsaved transactions for review.
func (s *Scanner) Scan(ctx context.Context, imageData string) (*Result, error) {
	if !s.online() {
		return nil, offline.ErrOffline
	}
	if err := s.limiter.Allow(ctx); err != nil {
		return nil, err
	}

	ex, err := s.extractor.Extract(ctx, imageData)
	if err != nil {
		slog.Error("Scan failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if len(ex.Expenses) == 0 {
		return nil, ErrNothingFound
	}

	left, err := s.limiter.Consume(ctx)
	if err != nil {
		return nil, err
	}

	categories := s.categories(ctx)
	out := &Result{RawText: ex.RawText, Remaining: left}
	for _, c := range ex.Expenses {
		out.Expenses = append(out.Expenses, s.normalize(c, categories))
	}
	slog.Info("Scan succeeded", "expenses", len(out.Expenses), "remaining", left)
	return out, nil
}

// categories returns the user's categories, or the defaults if they cannot
// be read.
func (s *Scanner) categories(ctx context.Context) []string {
	names, err := s.ledger.CategoryNames(ctx)
	if err != nil || len(names) == 0 {
		if err != nil {
			slog.Warn("Using default categories", "error", err)
		}
		return models.DefaultCategories
	}
	return names
}

// normalize turns a candidate into an unsaved expense. Unknown categories
// map to the fallback category, unknown payment modes to Other and missing
// or unreadable dates to today.
func (s *Scanner) normalize(c Candidate, categories []string) models.Transaction {
	tx := models.Transaction{
		Title:       strings.TrimSpace(c.Title),
		Amount:      c.Amount,
		PaymentMode: models.PaymentOther,
		Type:        models.EntryExpense,
		Date:        s.now(),
	}
	if name, ok := matchCategory(c.Category, categories); ok {
		tx.Category = name
	} else if name, ok := matchCategory(models.FallbackCategory, categories); ok {
		tx.Category = name
	} else {
		tx.Category = models.FallbackCategory
	}
	if m := models.PaymentMode(c.PaymentMode); m.Valid() {
		tx.PaymentMode = m
	}
	if c.Date != "" {
		if d, err := time.ParseInLocation(time.DateOnly, c.Date, time.Local); err == nil {
			tx.Date = d
		}
	}
	return tx
}

// Save stores the reviewed expenses in the personal ledger. Entries without
// a title or with a non-positive amount are skipped. It returns how many
// were saved.
func (s *Scanner) Save(ctx context.Context, txs []models.Transaction) (int, error) {
	saved := 0
	for i := range txs {
		tx := txs[i]
		if strings.TrimSpace(tx.Title) == "" || !tx.Amount.IsPositive() {
			continue
		}
		if err := s.ledger.AddTransaction(ctx, &tx); err != nil {
			return saved, fmt.Errorf("save %q: %w", tx.Title, err)
		}
		saved++
	}
	return saved, nil
}
