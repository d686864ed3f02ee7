package offline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmynk/verdant/internal/metrics"
	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/pkg/api"
)

const (
	defaultReconnectDelay = time.Second
	maxReconnectDelay     = 30 * time.Second
)

// Stream is an open change subscription.
type Stream interface {
	Next() (*models.ChangeEvent, bool)
	Err() error
	Close() error
}

// Subscriber opens a group's change channel.
type Subscriber interface {
	Subscribe(ctx context.Context, groupID string) (Stream, error)
}

// ClientSubscriber adapts an API client to Subscriber.
type ClientSubscriber struct {
	Client *api.Client
}

func (c ClientSubscriber) Subscribe(ctx context.Context, groupID string) (Stream, error) {
	s, err := c.Client.Subscribe(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Listener keeps an open GroupView current. Any change event for a table
// triggers a refetch of that entity's whole list; rows in events are never
// applied directly. Events that arrive while offline are dropped, and the
// view is resynced once connectivity returns.
type Listener struct {
	view    *GroupView
	sub     Subscriber
	monitor *Monitor
	opts    Options
	delay   time.Duration

	cancel      context.CancelFunc
	done        chan struct{}
	unsubscribe func()

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	missed    atomic.Bool
	closeOnce sync.Once
}

// Listen subscribes to view's group until Close is called or ctx ends.
// reconnectDelay is the initial pause before resubscribing after the stream
// drops; zero means one second.
func Listen(ctx context.Context, view *GroupView, sub Subscriber, reconnectDelay time.Duration) *Listener {
	if reconnectDelay <= 0 {
		reconnectDelay = defaultReconnectDelay
	}
	ctx, cancel := context.WithCancel(ctx)
	l := &Listener{
		view:    view,
		sub:     sub,
		monitor: view.monitor,
		opts:    view.opts,
		delay:   reconnectDelay,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	l.unsubscribe = l.monitor.Subscribe(func(online bool) {
		if online && l.missed.Swap(false) {
			l.resync(ctx)
		}
	})
	go l.run(ctx)
	return l
}

// Close releases the channel and waits for in-flight refetches to return.
func (l *Listener) Close() {
	l.closeOnce.Do(func() {
		l.unsubscribe()
		l.cancel()
		<-l.done

		l.mu.Lock()
		l.closed = true
		l.mu.Unlock()
		l.wg.Wait()
	})
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.done)

	log := l.opts.Logger.With("group_id", l.view.groupID)
	delay := l.delay
	connected := false

	for {
		if err := l.monitor.WaitOnline(ctx); err != nil {
			return
		}

		stream, err := l.sub.Subscribe(ctx, l.view.groupID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("Subscribe failed", "error", err, "retry_in", delay)
			if !sleep(ctx, delay) {
				return
			}
			delay = min(delay*2, maxReconnectDelay)
			continue
		}

		// Subscribe returns once the server registered the channel, so a
		// refetch now covers whatever changed while we were disconnected.
		if connected {
			l.resync(ctx)
		}
		connected = true
		delay = l.delay
		log.Debug("Listening for changes")

		for {
			ev, ok := stream.Next()
			if !ok {
				break
			}
			l.handle(ctx, ev)
		}
		err = stream.Err()
		stream.Close()

		if ctx.Err() != nil {
			return
		}
		log.Info("Change stream ended, reconnecting", "error", err)
		if !sleep(ctx, delay) {
			return
		}
	}
}

func (l *Listener) handle(ctx context.Context, ev *models.ChangeEvent) {
	if !l.monitor.Online() {
		l.missed.Store(true)
		l.opts.Logger.Debug("Offline, ignoring change", "table", ev.Table)
		return
	}
	fn := l.refetchFor(ev.Table)
	if fn == nil {
		l.opts.Logger.Debug("Ignoring change for unknown table", "table", ev.Table)
		return
	}
	metrics.LiveRefetches.WithLabelValues(string(ev.Table)).Inc()
	l.spawn(ctx, string(ev.Table), fn)
}

func (l *Listener) refetchFor(t models.Table) func(context.Context) error {
	switch t {
	case models.TableMessages:
		return l.view.RefetchMessages
	case models.TableExpenses, models.TableReactions:
		return l.view.RefetchExpenses
	case models.TableMembers:
		return l.view.RefetchMembers
	case models.TableGoals, models.TableContributions:
		return l.view.RefetchGoals
	}
	return nil
}

func (l *Listener) resync(ctx context.Context) {
	l.spawn(ctx, "members", l.view.RefetchMembers)
	l.spawn(ctx, "expenses", l.view.RefetchExpenses)
	l.spawn(ctx, "messages", l.view.RefetchMessages)
	l.spawn(ctx, "goals", l.view.RefetchGoals)
}

// spawn runs a refetch concurrently with any others in flight.
func (l *Listener) spawn(ctx context.Context, what string, fn func(context.Context) error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()
		err := fn(ctx)
		switch {
		case err == nil, ctx.Err() != nil, errors.Is(err, ErrClosed):
		case errors.Is(err, ErrOffline):
			l.missed.Store(true)
		default:
			l.opts.Logger.Warn("Live refetch failed", "group_id", l.view.groupID, "entity", what, "error", err)
		}
	}()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
