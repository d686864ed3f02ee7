package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmynk/verdant/internal/config"
	"github.com/mmynk/verdant/internal/localstore"
	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/offline"
	"github.com/mmynk/verdant/pkg/api"
)

const sessionKey = "session"

type session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// app wires the local database, connectivity and the API client.
type app struct {
	cfg     *config.Client
	store   *localstore.Store
	monitor *offline.Monitor
	client  *api.Client
	session *session
	http    *http.Client
}

func newApp(ctx context.Context, forceOffline bool) (*app, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	store, err := localstore.Open(cfg.DataPath, nil)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:   cfg,
		store: store,
		http:  &http.Client{},
	}
	if a.session, err = a.loadSession(ctx); err != nil {
		store.Close()
		return nil, err
	}
	a.client = api.NewClient(a.http, cfg.ServerURL, api.WithToken(a.token))

	online := false
	if !forceOffline {
		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		online = a.check()(probeCtx)
		cancel()
	}
	a.monitor = offline.NewMonitor(online, slog.Default())
	slog.Debug("Client ready", "server", cfg.ServerURL, "online", online, "data", cfg.DataPath)
	return a, nil
}

func (a *app) Close() { a.store.Close() }

func (a *app) check() func(context.Context) bool {
	return offline.HTTPCheck(a.http, strings.TrimSuffix(a.cfg.ServerURL, "/")+"/healthz")
}

func (a *app) token() string {
	if a.session == nil {
		return ""
	}
	return a.session.Token
}

func (a *app) options() offline.Options {
	return offline.Options{
		FetchTimeout:   a.cfg.FetchTimeout,
		PrefetchPacing: a.cfg.PrefetchPacing,
	}
}

func (a *app) cache() *offline.CacheStore {
	return offline.NewCacheStore(a.store, nil)
}

func (a *app) loadSession(ctx context.Context) (*session, error) {
	raw, ok, err := a.store.Get(ctx, sessionKey)
	if err != nil || !ok {
		return nil, err
	}
	var s session
	if err := json.Unmarshal(raw, &s); err != nil {
		slog.Warn("Ignoring unreadable session", "error", err)
		return nil, nil
	}
	return &s, nil
}

func (a *app) saveSession(ctx context.Context, resp *api.AuthResponse) error {
	s := &session{Token: resp.Token, User: resp.User}
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := a.store.Set(ctx, sessionKey, raw); err != nil {
		return err
	}
	a.session = s
	return nil
}

// user returns the signed-in user's ID.
func (a *app) user() (string, error) {
	if a.session == nil {
		return "", errors.New("not signed in; run `verdant login`")
	}
	return a.session.User.ID, nil
}

// openView loads a group view, printing notices to stderr.
func (a *app) openView(ctx context.Context, groupID string) (*offline.GroupView, error) {
	userID, err := a.user()
	if err != nil {
		return nil, err
	}
	view := offline.NewGroupView(offline.ViewConfig{
		GroupID: groupID,
		UserID:  userID,
		Reader:  a.client,
		Cache:   a.cache(),
		Monitor: a.monitor,
		Notify:  printNotice,
		Options: a.options(),
	})
	if err := view.Open(ctx); err != nil {
		view.Close()
		return nil, err
	}
	return view, nil
}

func printNotice(n offline.Notice) {
	prefix := "info"
	if n.Kind == offline.NoticeError {
		prefix = "error"
	}
	if n.Err != nil {
		fmt.Fprintf(stderr, "[%s] %s: %v\n", prefix, n.Text, n.Err)
		return
	}
	fmt.Fprintf(stderr, "[%s] %s\n", prefix, n.Text)
}
