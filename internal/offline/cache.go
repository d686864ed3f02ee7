package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mmynk/verdant/internal/metrics"
	"github.com/mmynk/verdant/internal/models"
)

// Entry is the complete snapshot of one group.
type Entry struct {
	Group    models.Group     `json:"group"`
	Members  []models.Member  `json:"members"`
	Expenses []models.Expense `json:"expenses"`
	Messages []models.Message `json:"messages"`

	// CachedAt is when the snapshot was captured, in Unix milliseconds.
	CachedAt int64 `json:"cachedAt"`
}

// CacheKey is the KV key of groupID's snapshot.
func CacheKey(groupID string) string { return "group_details_" + groupID }

// CacheStore persists group snapshots. Entries are never expired.
type CacheStore struct {
	kv     KV
	logger *slog.Logger
}

func NewCacheStore(kv KV, logger *slog.Logger) *CacheStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CacheStore{kv: kv, logger: logger}
}

// Write replaces groupID's snapshot with e.
func (c *CacheStore) Write(ctx context.Context, groupID string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", groupID, err)
	}
	if err := c.kv.Set(ctx, CacheKey(groupID), data); err != nil {
		return fmt.Errorf("write snapshot %s: %w", groupID, err)
	}
	return nil
}

// Read returns groupID's snapshot. Missing, unreadable and corrupt entries
// all report false.
func (c *CacheStore) Read(ctx context.Context, groupID string) (Entry, bool) {
	data, ok, err := c.kv.Get(ctx, CacheKey(groupID))
	if err != nil {
		c.logger.Warn("Cache read failed", "group_id", groupID, "error", err)
		metrics.CacheReads.WithLabelValues("miss").Inc()
		return Entry{}, false
	}
	if !ok {
		metrics.CacheReads.WithLabelValues("miss").Inc()
		return Entry{}, false
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil || e.Group.ID == "" {
		c.logger.Debug("Ignoring corrupt cache entry", "group_id", groupID, "error", err)
		metrics.CacheReads.WithLabelValues("corrupt").Inc()
		return Entry{}, false
	}
	metrics.CacheReads.WithLabelValues("hit").Inc()
	return e, true
}
