package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/verdant/internal/auth"
	"github.com/mmynk/verdant/internal/middleware"
	"github.com/mmynk/verdant/internal/realtime"
	"github.com/mmynk/verdant/internal/storage/sqlite"
	"github.com/mmynk/verdant/pkg/api"
)

type testServer struct {
	url   string
	hub   *realtime.Hub
	store *sqlite.SQLiteStore
}

// setupTestServer starts every service over a temp database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	hub := realtime.NewHub()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)

	public := connect.WithInterceptors(middleware.LoggingInterceptor())
	private := connect.WithInterceptors(middleware.LoggingInterceptor(), middleware.RequireAuth(jwtManager))

	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, nil), public))
	mux.Handle(api.NewGroupServiceHandler(NewGroupService(store, hub), private))
	mux.Handle(api.NewExpenseServiceHandler(NewExpenseService(store, hub), private))
	mux.Handle(api.NewChatServiceHandler(NewChatService(store, hub), private))
	mux.Handle(api.NewGoalServiceHandler(NewGoalService(store, hub), private))
	mux.Handle(api.NewRealtimeServiceHandler(NewRealtimeService(store, hub), private))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})

	return &testServer{url: server.URL, hub: hub, store: store}
}

// anonymous returns a client without credentials.
func (s *testServer) anonymous() *api.Client {
	return api.NewClient(http.DefaultClient, s.url)
}

// signUp registers a user and returns a client authenticated as them.
func (s *testServer) signUp(t *testing.T, name string) (*api.Client, *api.AuthResponse) {
	t.Helper()

	resp, err := s.anonymous().Register(context.Background(), &api.RegisterRequest{
		Email:       name + "@example.com",
		DisplayName: name,
		Password:    "password123",
	})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", name, err)
	}
	token := resp.Token
	return api.NewClient(http.DefaultClient, s.url, api.WithToken(func() string { return token })), resp
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect error, got %v", err)
	}
	if connectErr.Code() != want {
		t.Errorf("expected code %v, got %v (%v)", want, connectErr.Code(), err)
	}
}
