package offline

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mmynk/verdant/internal/metrics"
)

// Monitor tracks whether the device is online and notifies subscribers on
// every transition. There is no debouncing.
type Monitor struct {
	// notifyMu serializes Set so subscribers see transitions in order.
	notifyMu sync.Mutex

	mu       sync.Mutex
	online   bool
	onlineCh chan struct{} // closed while online
	subs     map[uint64]func(bool)
	nextID   uint64

	logger *slog.Logger
}

// NewMonitor creates a monitor in the given initial state. A nil logger
// means slog.Default().
func NewMonitor(online bool, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{
		logger:   logger,
		online:   online,
		onlineCh: make(chan struct{}),
		subs:     make(map[uint64]func(bool)),
	}
	if online {
		close(m.onlineCh)
	}
	return m
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set records the current state. Subscribers are called synchronously, on
// the caller's goroutine, only when the state changes. They must not call
// Set.
func (m *Monitor) Set(online bool) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	if online {
		close(m.onlineCh)
	} else {
		m.onlineCh = make(chan struct{})
	}
	fns := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	to := "offline"
	if online {
		to = "online"
	}
	metrics.ConnectivityTransitions.WithLabelValues(to).Inc()
	m.logger.Info("Connectivity changed", "to", to)

	for _, fn := range fns {
		fn(online)
	}
}

// Subscribe registers fn for transitions and returns a func removing it.
func (m *Monitor) Subscribe(fn func(online bool)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	id := m.nextID
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// WaitOnline blocks until the monitor reports online or ctx ends.
func (m *Monitor) WaitOnline(ctx context.Context) error {
	m.mu.Lock()
	ch := m.onlineCh
	m.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Probe runs check every interval and feeds the result into Set until ctx
// ends. The first check runs immediately.
func (m *Monitor) Probe(ctx context.Context, interval time.Duration, check func(ctx context.Context) bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		probeCtx, cancel := context.WithTimeout(ctx, interval)
		ok := check(probeCtx)
		cancel()
		if ctx.Err() != nil {
			return
		}
		m.Set(ok)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// HTTPCheck returns a probe that GETs url and treats any 2xx as online.
func HTTPCheck(client *http.Client, url string) func(ctx context.Context) bool {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode >= 200 && resp.StatusCode < 300
	}
}
