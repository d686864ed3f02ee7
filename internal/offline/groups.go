package offline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mmynk/verdant/internal/models"
)

// GroupLister lists the groups of the signed-in user.
type GroupLister interface {
	ListGroups(ctx context.Context) ([]models.Group, error)
}

// GroupsKey is the KV key of userID's group list.
func GroupsKey(userID string) string { return "groups_" + userID }

// GroupsIndex serves the user's group list, from the KV store when offline
// and from the backend when online.
type GroupsIndex struct {
	userID     string
	kv         KV
	lister     GroupLister
	prefetcher *Prefetcher
	monitor    *Monitor
	opts       Options
}

func NewGroupsIndex(userID string, kv KV, lister GroupLister, prefetcher *Prefetcher, monitor *Monitor, opts Options) *GroupsIndex {
	return &GroupsIndex{
		userID:     userID,
		kv:         kv,
		lister:     lister,
		prefetcher: prefetcher,
		monitor:    monitor,
		opts:       opts.withDefaults(),
	}
}

// GroupsResult is a group list and whether it came from the backend.
type GroupsResult struct {
	Groups []models.Group
	Live   bool

	// Prefetched is closed when the background prefetch started by a live
	// load finishes. It is nil for cached results.
	Prefetched <-chan struct{}
}

// Load returns the user's groups. Online, a successful fetch rewrites the
// cached list and starts a background prefetch of every group. If the
// fetch fails, the cached list is returned with the error.
func (g *GroupsIndex) Load(ctx context.Context) (GroupsResult, error) {
	cached := g.cached(ctx)
	if !g.monitor.Online() {
		return GroupsResult{Groups: cached}, nil
	}

	groups, err := fetch(ctx, g.opts.FetchTimeout, g.lister.ListGroups)
	if err != nil {
		return GroupsResult{Groups: cached}, fmt.Errorf("list groups: %w", err)
	}
	if groups == nil {
		groups = []models.Group{}
	}

	if data, err := json.Marshal(groups); err == nil {
		if err := g.kv.Set(ctx, GroupsKey(g.userID), data); err != nil {
			g.opts.Logger.Warn("Failed to cache group list", "error", err)
		}
	}

	ids := make([]string, len(groups))
	for i, gr := range groups {
		ids[i] = gr.ID
	}
	done := g.prefetcher.Start(context.WithoutCancel(ctx), ids)
	return GroupsResult{Groups: groups, Live: true, Prefetched: done}, nil
}

func (g *GroupsIndex) cached(ctx context.Context) []models.Group {
	data, ok, err := g.kv.Get(ctx, GroupsKey(g.userID))
	if err != nil || !ok {
		return nil
	}
	var groups []models.Group
	if err := json.Unmarshal(data, &groups); err != nil {
		g.opts.Logger.Debug("Ignoring corrupt group list", "error", err)
		return nil
	}
	return groups
}
