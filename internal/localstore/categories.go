package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/verdant/internal/events"
	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/storage"
	"github.com/mmynk/verdant/internal/storage/sqlite"
)

// ErrDefaultCategory is returned when deleting a built-in category.
var ErrDefaultCategory = errors.New("default categories cannot be deleted")

// ListCategories returns every category, sorted by name.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var out []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CategoryNames returns the names of every category.
func (s *Store) CategoryNames(ctx context.Context) ([]string, error) {
	list, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = c.Name
	}
	return names, nil
}

// AddCategory creates a category. Names are unique regardless of case;
// a duplicate wraps storage.ErrConflict.
func (s *Store) AddCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name required")
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		if sqlite.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: category %q", storage.ErrConflict, name)
		}
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read category id: %w", err)
	}
	s.bus.Publish(events.Categories)
	return &models.Category{ID: id, Name: name}, nil
}

// DeleteCategory removes a user-added category. Ledger entries keep their
// category name.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("category", id)
	}
	if err != nil {
		return fmt.Errorf("failed to read category: %w", err)
	}
	if models.IsDefaultCategory(name) {
		return fmt.Errorf("%w: %s", ErrDefaultCategory, name)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	s.bus.Publish(events.Categories)
	return nil
}
