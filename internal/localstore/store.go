// Package localstore is the client's on-device database: a key-value table
// for cached snapshots and counters, plus the personal ledger and reminders.
package localstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/verdant/internal/events"
	"github.com/mmynk/verdant/internal/storage"
	"github.com/mmynk/verdant/internal/storage/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is the local database. Writes to the ledger and reminders are
// announced on Bus.
type Store struct {
	db  *sql.DB
	bus *events.Bus
	now func() time.Time
}

// Open opens (creating if needed) the local database at path. bus may be
// nil, in which case a private bus is created.
func Open(path string, bus *events.Bus) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(db, migrations, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate local database: %w", err)
	}
	if bus == nil {
		bus = events.NewBus()
	}
	return &Store{db: db, bus: bus, now: time.Now}, nil
}

// Bus returns the data-changed bus the store publishes on.
func (s *Store) Bus() *events.Bus { return s.bus }

func (s *Store) Close() error { return s.db.Close() }

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value in a single
// statement.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys starting with prefix, sorted.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	// Escape LIKE wildcards; keys such as group_details_ contain '_'.
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM kv WHERE key LIKE ? ESCAPE '\' ORDER BY key`, escaped+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func notFound(what string, id int64) error {
	return fmt.Errorf("%w: %s %d", storage.ErrNotFound, what, id)
}

func millis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromMillis(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return time.UnixMilli(v.Int64)
}
