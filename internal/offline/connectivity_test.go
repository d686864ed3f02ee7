package offline

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestMonitor_LogsToInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	m := NewMonitor(true, slog.New(slog.NewTextHandler(&buf, nil)))

	m.Set(true)
	if buf.Len() != 0 {
		t.Fatalf("logged without a transition: %s", buf.String())
	}
	m.Set(false)
	if out := buf.String(); !strings.Contains(out, "Connectivity changed") || !strings.Contains(out, "to=offline") {
		t.Errorf("log = %q", out)
	}
}

func TestMonitor_NotifiesOnTransitionsOnly(t *testing.T) {
	m := NewMonitor(true, nil)

	var (
		mu  sync.Mutex
		got []bool
	)
	unsubscribe := m.Subscribe(func(online bool) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, online)
	})

	for _, v := range []bool{true, false, false, true, true, false} {
		m.Set(v)
	}
	unsubscribe()
	m.Set(true)

	mu.Lock()
	defer mu.Unlock()
	if want := []bool{false, true, false}; !slices.Equal(got, want) {
		t.Errorf("notifications = %v, want %v", got, want)
	}
	if !m.Online() {
		t.Error("expected monitor to be online")
	}
}

func TestMonitor_WaitOnline(t *testing.T) {
	m := NewMonitor(false, nil)

	done := make(chan error, 1)
	go func() { done <- m.WaitOnline(context.Background()) }()

	select {
	case err := <-done:
		t.Fatalf("WaitOnline returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	m.Set(true)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WaitOnline: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WaitOnline did not return after going online")
	}

	// Already online returns immediately.
	if err := m.WaitOnline(context.Background()); err != nil {
		t.Fatalf("WaitOnline while online: %v", err)
	}
}

func TestMonitor_WaitOnlineCanceled(t *testing.T) {
	m := NewMonitor(true, nil)
	m.Set(false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.WaitOnline(ctx); err != context.Canceled {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestMonitor_Probe(t *testing.T) {
	m := NewMonitor(true, nil)
	results := []bool{false, false, true}

	var (
		mu    sync.Mutex
		calls int
		seen  []bool
	)
	m.Subscribe(func(online bool) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, online)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Probe(ctx, 5*time.Millisecond, func(context.Context) bool {
			mu.Lock()
			defer mu.Unlock()
			ok := results[min(calls, len(results)-1)]
			calls++
			return ok
		})
	}()

	waitFor(t, "connectivity transitions", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	})
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if want := []bool{false, true}; !slices.Equal(seen, want) {
		t.Errorf("transitions = %v, want %v", seen, want)
	}
}

func TestHTTPCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	unhealthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer unhealthy.Close()

	gone := httptest.NewServer(http.NotFoundHandler())
	goneURL := gone.URL
	gone.Close()

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"ok", healthy.URL + "/healthz", true},
		{"unavailable", unhealthy.URL + "/healthz", false},
		{"unreachable", goneURL + "/healthz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := HTTPCheck(nil, tt.url)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if got := check(ctx); got != tt.want {
				t.Errorf("check = %v, want %v", got, tt.want)
			}
		})
	}
}
