// Package offline keeps a group's data usable without a network.
//
// A CacheStore persists one complete snapshot per group, written only by the
// Prefetcher. A GroupView serves that snapshot first and then replaces it
// with live data when the Monitor reports the device online, and a Listener
// keeps an open view current by refetching whole entity lists whenever the
// backend reports a change.
package offline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/verdant/internal/models"
)

const (
	DefaultFetchTimeout   = 10 * time.Second
	DefaultPrefetchPacing = 100 * time.Millisecond
)

var (
	// ErrOffline is returned by network-dependent actions while offline,
	// before any request is made.
	ErrOffline = errors.New("offline: action unavailable")

	ErrNotAdmin = errors.New("only group admins can do this")
	ErrNotOwner = errors.New("only the author can do this")
	ErrClosed   = errors.New("view closed")
)

// Reader is the part of the backend API the offline layer reads from.
// *api.Client implements it.
type Reader interface {
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	ListMembers(ctx context.Context, groupID string) ([]models.Member, error)
	ListExpenses(ctx context.Context, groupID string) ([]models.Expense, error)
	ListMessages(ctx context.Context, groupID string) ([]models.Message, error)
	ListGoals(ctx context.Context, groupID string) ([]models.Goal, error)
}

// KV is a durable key-value store with atomic single-key writes.
// *localstore.Store implements it.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Options tunes the offline components. Zero values select the defaults.
type Options struct {
	// FetchTimeout bounds every individual network read.
	FetchTimeout time.Duration

	// PrefetchPacing is the pause between groups in PrefetchMany.
	PrefetchPacing time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

func (o Options) withDefaults() Options {
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.PrefetchPacing <= 0 {
		o.PrefetchPacing = DefaultPrefetchPacing
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// fetch runs fn under the per-fetch deadline.
func fetch[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

// fetchGroup reads a group's metadata under the per-fetch deadline. A reader
// answering with no group and no error is treated as NotFound.
func fetchGroup(ctx context.Context, r Reader, timeout time.Duration, groupID string) (*models.Group, error) {
	group, err := fetch(ctx, timeout, func(ctx context.Context) (*models.Group, error) {
		return r.GetGroup(ctx, groupID)
	})
	if err == nil && group == nil {
		err = connect.NewError(connect.CodeNotFound, fmt.Errorf("group %s not found", groupID))
	}
	return group, err
}

// isMissing reports whether err means the group does not exist for the
// caller.
func isMissing(err error) bool {
	switch connect.CodeOf(err) {
	case connect.CodeNotFound, connect.CodePermissionDenied:
		return true
	}
	return false
}
