package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/verdant/pkg/api"
)

func TestRegisterAndLogin(t *testing.T) {
	srv := setupTestServer(t)
	ctx := context.Background()

	_, reg := srv.signUp(t, "alice")
	if reg.Token == "" {
		t.Fatal("expected token on register")
	}
	if reg.User.DisplayName != "alice" {
		t.Errorf("expected display name alice, got %q", reg.User.DisplayName)
	}

	login, err := srv.anonymous().Login(ctx, &api.LoginRequest{
		Email:    "ALICE@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.User.ID != reg.User.ID {
		t.Errorf("expected user %s, got %s", reg.User.ID, login.User.ID)
	}
}

func TestRegisterErrors(t *testing.T) {
	srv := setupTestServer(t)
	srv.signUp(t, "alice")

	tests := []struct {
		name string
		req  *api.RegisterRequest
		code connect.Code
	}{
		{"duplicate email", &api.RegisterRequest{Email: "alice@example.com", DisplayName: "A", Password: "password123"}, connect.CodeAlreadyExists},
		{"weak password", &api.RegisterRequest{Email: "bob@example.com", DisplayName: "Bob", Password: "short"}, connect.CodeInvalidArgument},
		{"bad email", &api.RegisterRequest{Email: "not-an-email", DisplayName: "Bob", Password: "password123"}, connect.CodeInvalidArgument},
		{"missing email", &api.RegisterRequest{DisplayName: "Bob", Password: "password123"}, connect.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.anonymous().Register(context.Background(), tt.req)
			assertCode(t, err, tt.code)
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	srv := setupTestServer(t)
	srv.signUp(t, "alice")

	_, err := srv.anonymous().Login(context.Background(), &api.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestPrivateServicesRequireToken(t *testing.T) {
	srv := setupTestServer(t)

	_, err := srv.anonymous().ListGroups(context.Background())
	assertCode(t, err, connect.CodeUnauthenticated)
}
