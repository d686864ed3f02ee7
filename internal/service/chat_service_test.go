package service

import (
	"context"
	"strings"
	"testing"

	"connectrpc.com/connect"
)

func TestSendAndListMessages(t *testing.T) {
	srv := setupTestServer(t)
	alice, _ := srv.signUp(t, "alice")
	bob, _ := srv.signUp(t, "bob")
	ctx := context.Background()

	group, err := alice.CreateGroup(ctx, "Flat")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := bob.JoinGroup(ctx, group.JoinCode); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}

	for _, m := range []struct {
		send func(context.Context, string, string) error
		text string
	}{
		{func(ctx context.Context, g, c string) error { _, err := alice.SendMessage(ctx, g, c); return err }, "rent is due"},
		{func(ctx context.Context, g, c string) error { _, err := bob.SendMessage(ctx, g, c); return err }, "paid mine"},
	} {
		if err := m.send(ctx, group.ID, m.text); err != nil {
			t.Fatalf("SendMessage failed: %v", err)
		}
	}

	msgs, err := bob.ListMessages(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "rent is due" || msgs[1].Content != "paid mine" {
		t.Errorf("expected oldest first, got %q then %q", msgs[0].Content, msgs[1].Content)
	}
	if msgs[1].UserName != "bob" {
		t.Errorf("expected sender name bob, got %q", msgs[1].UserName)
	}
}

func TestSendMessageValidation(t *testing.T) {
	srv := setupTestServer(t)
	alice, _ := srv.signUp(t, "alice")
	ctx := context.Background()

	group, err := alice.CreateGroup(ctx, "Flat")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	_, err = alice.SendMessage(ctx, group.ID, "   ")
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = alice.SendMessage(ctx, group.ID, strings.Repeat("a", maxMessageLen+1))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestDeleteMessagesOwnerOnly(t *testing.T) {
	srv := setupTestServer(t)
	alice, _ := srv.signUp(t, "alice")
	bob, _ := srv.signUp(t, "bob")
	ctx := context.Background()

	group, err := alice.CreateGroup(ctx, "Flat")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := bob.JoinGroup(ctx, group.JoinCode); err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}

	a1, err := alice.SendMessage(ctx, group.ID, "one")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	a2, err := alice.SendMessage(ctx, group.ID, "two")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	b1, err := bob.SendMessage(ctx, group.ID, "three")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}

	// A batch with a foreign message is rejected entirely.
	assertCode(t, alice.DeleteMessages(ctx, []string{a1.ID, b1.ID}), connect.CodePermissionDenied)
	assertCode(t, alice.DeleteMessages(ctx, []string{a1.ID, "missing"}), connect.CodeNotFound)
	assertCode(t, alice.DeleteMessages(ctx, nil), connect.CodeInvalidArgument)

	if err := alice.DeleteMessages(ctx, []string{a1.ID, a2.ID, a1.ID}); err != nil {
		t.Fatalf("DeleteMessages failed: %v", err)
	}

	msgs, err := alice.ListMessages(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != b1.ID {
		t.Errorf("expected only bob's message to remain, got %+v", msgs)
	}
}
