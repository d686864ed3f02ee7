package offline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/verdant/internal/models"
)

// State is where a GroupView is in its load sequence.
type State int

const (
	StateInit State = iota
	StateCacheCheck
	StateOfflineServeCache
	StateOnlineFetchLive
	StateReady
	StateNotFound
	StateFailed
)

var stateNames = [...]string{
	StateInit:              "init",
	StateCacheCheck:        "cache-check",
	StateOfflineServeCache: "offline-serve-cache",
	StateOnlineFetchLive:   "online-fetch-live",
	StateReady:             "ready",
	StateNotFound:          "not-found",
	StateFailed:            "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Phase says where the data in a Snapshot came from.
type Phase int

const (
	PhaseEmpty Phase = iota
	// PhaseCached data was read from the CacheStore, or at least one list
	// could not be refreshed live (see Snapshot.Stale). It may be stale.
	PhaseCached
	// PhaseAuthoritative means the group and every list were fetched live.
	// Live lists replace cached ones wholesale; the two are never merged.
	PhaseAuthoritative
)

func (p Phase) String() string {
	switch p {
	case PhaseCached:
		return "cached"
	case PhaseAuthoritative:
		return "authoritative"
	}
	return "empty"
}

// Snapshot is what a group view currently shows.
type Snapshot struct {
	State State
	Phase Phase

	Group    *models.Group
	Members  []models.Member
	Expenses []models.Expense
	Messages []models.Message
	Goals    []models.Goal

	// IsAdmin is derived from Members for the viewing user.
	IsAdmin bool

	// CachedAt is the capture time of the cached snapshot, if one was used.
	CachedAt int64

	// Stale lists the entities whose last live refetch failed.
	Stale []string

	// Err is set when the live group fetch failed.
	Err error
}

// NoticeKind classifies a Notice.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeError
)

// Notice is a short-lived, dismissible message for the user.
type Notice struct {
	Kind NoticeKind
	Text string
	Err  error
}

// ViewConfig wires a GroupView.
type ViewConfig struct {
	GroupID string
	UserID  string

	Reader  Reader
	Cache   *CacheStore
	Monitor *Monitor

	// Notify receives user-facing notices. Optional.
	Notify func(Notice)

	Options
}

// GroupView holds the state of one open group. Every update is dropped once
// the view is closed, so responses arriving late are harmless.
type GroupView struct {
	groupID string
	userID  string
	reader  Reader
	cache   *CacheStore
	monitor *Monitor
	notify  func(Notice)
	opts    Options

	mu       sync.Mutex
	snap     Snapshot
	closed   bool
	watchers map[uint64]func(Snapshot)
	nextID   uint64
}

func NewGroupView(cfg ViewConfig) *GroupView {
	return &GroupView{
		groupID:  cfg.GroupID,
		userID:   cfg.UserID,
		reader:   cfg.Reader,
		cache:    cfg.Cache,
		monitor:  cfg.Monitor,
		notify:   cfg.Notify,
		opts:     cfg.Options.withDefaults(),
		watchers: make(map[uint64]func(Snapshot)),
	}
}

func (v *GroupView) GroupID() string { return v.groupID }

// Snapshot returns the current state. Slices must be treated as read-only.
func (v *GroupView) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap
}

// Watch calls fn with every new snapshot until the returned func is called
// or the view is closed.
func (v *GroupView) Watch(fn func(Snapshot)) (unwatch func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.nextID++
	id := v.nextID
	v.watchers[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.watchers, id)
	}
}

// CanMutate reports whether create, edit, delete and react actions should be
// enabled.
func (v *GroupView) CanMutate() bool {
	v.mu.Lock()
	closed := v.closed
	v.mu.Unlock()
	return !closed && v.monitor.Online()
}

// Close stops all further updates and notices.
func (v *GroupView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	clear(v.watchers)
}

func (v *GroupView) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// update applies fn to the snapshot and notifies watchers. It reports
// false, without applying fn, once the view is closed.
func (v *GroupView) update(fn func(s *Snapshot)) bool {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return false
	}
	fn(&v.snap)
	snap := v.snap
	watchers := make([]func(Snapshot), 0, len(v.watchers))
	for _, w := range v.watchers {
		watchers = append(watchers, w)
	}
	v.mu.Unlock()

	for _, w := range watchers {
		w(snap)
	}
	return true
}

func (v *GroupView) emit(n Notice) {
	if v.notify == nil || v.isClosed() {
		return
	}
	v.notify(n)
}

func (v *GroupView) fail(text string, err error) {
	v.opts.Logger.Warn(text, "group_id", v.groupID, "error", err)
	v.emit(Notice{Kind: NoticeError, Text: text, Err: err})
}

// Open loads the view. A cached snapshot is shown first when there is one.
// Offline, that is where it stops; online, the group is fetched live and
// every entity list is refetched, replacing the cached data.
func (v *GroupView) Open(ctx context.Context) error {
	v.update(func(s *Snapshot) { s.State = StateCacheCheck })

	entry, hit := v.cache.Read(ctx, v.groupID)
	if hit {
		v.update(func(s *Snapshot) {
			g := entry.Group
			s.Group = &g
			s.Members = entry.Members
			s.Expenses = entry.Expenses
			s.Messages = entry.Messages
			s.IsAdmin = models.IsAdmin(entry.Members, v.userID)
			s.CachedAt = entry.CachedAt
			s.Phase = PhaseCached
		})
	}

	if !v.monitor.Online() {
		v.update(func(s *Snapshot) {
			if hit {
				s.State = StateOfflineServeCache
			} else {
				s.State = StateNotFound
			}
		})
		v.opts.Logger.Debug("Offline, serving cache", "group_id", v.groupID, "hit", hit)
		return nil
	}

	v.update(func(s *Snapshot) { s.State = StateOnlineFetchLive })
	group, err := fetchGroup(ctx, v.reader, v.opts.FetchTimeout, v.groupID)
	if err != nil {
		if isMissing(err) {
			v.update(func(s *Snapshot) {
				*s = Snapshot{State: StateNotFound, Err: err}
			})
			v.fail("Group not found", err)
			return fmt.Errorf("open group %s: %w", v.groupID, err)
		}
		v.update(func(s *Snapshot) {
			s.State = StateFailed
			s.Err = err
		})
		v.fail("Error fetching group", err)
		return fmt.Errorf("open group %s: %w", v.groupID, err)
	}

	if !v.update(func(s *Snapshot) {
		s.Group = group
		s.Err = nil
	}) {
		return ErrClosed
	}

	v.refetchAll(ctx)

	v.update(func(s *Snapshot) {
		s.State = StateReady
		s.Phase = PhaseAuthoritative
		if len(s.Stale) > 0 {
			s.Phase = PhaseCached
		}
	})
	return nil
}

// refetchAll refetches the four entity lists in parallel. A failure only
// affects its own list.
func (v *GroupView) refetchAll(ctx context.Context) {
	var g errgroup.Group
	for name, fn := range map[string]func(context.Context) error{
		"members":  v.RefetchMembers,
		"expenses": v.RefetchExpenses,
		"messages": v.RefetchMessages,
		"goals":    v.RefetchGoals,
	} {
		g.Go(func() error {
			if err := fn(ctx); err != nil && !errors.Is(err, ErrClosed) && !errors.Is(err, ErrOffline) {
				v.fail("Error fetching "+name, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (v *GroupView) RefetchMembers(ctx context.Context) error {
	return refetch(ctx, v, "members", v.reader.ListMembers, func(s *Snapshot, list []models.Member) {
		s.Members = list
		s.IsAdmin = models.IsAdmin(list, v.userID)
	})
}

// RefetchExpenses reloads expenses together with their reactions.
func (v *GroupView) RefetchExpenses(ctx context.Context) error {
	return refetch(ctx, v, "expenses", v.reader.ListExpenses, func(s *Snapshot, list []models.Expense) {
		s.Expenses = list
	})
}

func (v *GroupView) RefetchMessages(ctx context.Context) error {
	return refetch(ctx, v, "messages", v.reader.ListMessages, func(s *Snapshot, list []models.Message) {
		s.Messages = list
	})
}

// RefetchGoals reloads goals together with their contributions.
func (v *GroupView) RefetchGoals(ctx context.Context) error {
	return refetch(ctx, v, "goals", v.reader.ListGoals, func(s *Snapshot, list []models.Goal) {
		s.Goals = list
	})
}

func refetch[T any](ctx context.Context, v *GroupView, entity string, read func(context.Context, string) ([]T, error), apply func(*Snapshot, []T)) error {
	if v.isClosed() {
		return ErrClosed
	}
	if !v.monitor.Online() {
		return ErrOffline
	}

	list, err := fetch(ctx, v.opts.FetchTimeout, func(ctx context.Context) ([]T, error) {
		return read(ctx, v.groupID)
	})
	if err != nil {
		v.update(func(s *Snapshot) {
			if !slices.Contains(s.Stale, entity) {
				s.Stale = append(slices.Clone(s.Stale), entity)
			}
		})
		return fmt.Errorf("refetch %s: %w", entity, err)
	}
	if list == nil {
		list = []T{}
	}

	if !v.update(func(s *Snapshot) {
		apply(s, list)
		if i := slices.Index(s.Stale, entity); i >= 0 {
			s.Stale = slices.Delete(slices.Clone(s.Stale), i, i+1)
			if len(s.Stale) == 0 && s.State == StateReady {
				s.Phase = PhaseAuthoritative
			}
		}
	}) {
		return ErrClosed
	}
	return nil
}

// dropExpense removes an expense from the view ahead of the server.
func (v *GroupView) dropExpense(id string) {
	v.update(func(s *Snapshot) {
		s.Expenses = slices.DeleteFunc(slices.Clone(s.Expenses), func(e models.Expense) bool {
			return e.ID == id
		})
	})
}
