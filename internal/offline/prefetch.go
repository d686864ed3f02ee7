package offline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/verdant/internal/metrics"
	"github.com/mmynk/verdant/internal/models"
)

// Prefetcher refreshes cached snapshots from the backend. It is the only
// writer of the CacheStore.
type Prefetcher struct {
	reader Reader
	cache  *CacheStore
	opts   Options
}

func NewPrefetcher(reader Reader, cache *CacheStore, opts Options) *Prefetcher {
	return &Prefetcher{reader: reader, cache: cache, opts: opts.withDefaults()}
}

// PrefetchOne reads a group's metadata, members, expenses and messages in
// parallel and writes them as one snapshot. Without metadata nothing is
// written; any other failed read is stored as an empty list.
func (p *Prefetcher) PrefetchOne(ctx context.Context, groupID string) error {
	var (
		g        errgroup.Group
		group    *models.Group
		members  = []models.Member{}
		expenses = []models.Expense{}
		messages = []models.Message{}
		partial  atomic.Bool
	)
	log := p.opts.Logger.With("group_id", groupID)
	timeout := p.opts.FetchTimeout

	g.Go(func() error {
		var err error
		group, err = fetchGroup(ctx, p.reader, timeout, groupID)
		return err
	})

	// Secondary reads never fail the group; each degrades to an empty list.
	secondary := func(name string, read func(ctx context.Context) error) {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if err := read(ctx); err != nil {
				log.Debug("Prefetch read failed, using empty list", "entity", name, "error", err)
				partial.Store(true)
			}
			return nil
		})
	}
	secondary("members", func(ctx context.Context) error {
		v, err := p.reader.ListMembers(ctx, groupID)
		if err == nil && v != nil {
			members = v
		}
		return err
	})
	secondary("expenses", func(ctx context.Context) error {
		v, err := p.reader.ListExpenses(ctx, groupID)
		if err == nil && v != nil {
			expenses = v
		}
		return err
	})
	secondary("messages", func(ctx context.Context) error {
		v, err := p.reader.ListMessages(ctx, groupID)
		if err == nil && v != nil {
			messages = v
		}
		return err
	})

	if err := g.Wait(); err != nil {
		metrics.Prefetches.WithLabelValues("failed").Inc()
		return fmt.Errorf("prefetch %s: %w", groupID, err)
	}

	entry := Entry{
		Group:    *group,
		Members:  members,
		Expenses: expenses,
		Messages: messages,
		CachedAt: p.opts.Now().UnixMilli(),
	}
	if err := p.cache.Write(ctx, groupID, entry); err != nil {
		metrics.Prefetches.WithLabelValues("failed").Inc()
		return err
	}

	outcome := "ok"
	if partial.Load() {
		outcome = "partial"
	}
	metrics.Prefetches.WithLabelValues(outcome).Inc()
	log.Debug("Group prefetched", "outcome", outcome)
	return nil
}

// PrefetchMany prefetches groupIDs one at a time, in order, pausing between
// groups. Failures are logged and do not stop the batch. It returns the
// number of groups cached.
func (p *Prefetcher) PrefetchMany(ctx context.Context, groupIDs []string) int {
	cached := 0
	for i, id := range groupIDs {
		if i > 0 {
			t := time.NewTimer(p.opts.PrefetchPacing)
			select {
			case <-ctx.Done():
				t.Stop()
				return cached
			case <-t.C:
			}
		}
		if err := p.PrefetchOne(ctx, id); err != nil {
			p.opts.Logger.Warn("Prefetch failed", "group_id", id, "error", err)
			continue
		}
		cached++
	}
	p.opts.Logger.Info("Prefetch finished", "groups", len(groupIDs), "cached", cached)
	return cached
}

// Start runs PrefetchMany in the background. The returned channel is closed
// when it finishes.
func (p *Prefetcher) Start(ctx context.Context, groupIDs []string) <-chan struct{} {
	ids := append([]string(nil), groupIDs...)
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.PrefetchMany(ctx, ids)
	}()
	return done
}
