package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/verdant/internal/models"
)

func TestCreateGroup(t *testing.T) {
	srv := setupTestServer(t)
	alice, reg := srv.signUp(t, "alice")
	ctx := context.Background()

	group, err := alice.CreateGroup(ctx, "  Goa Trip ")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if group.ID == "" {
		t.Error("expected group ID to be set")
	}
	if group.Name != "Goa Trip" {
		t.Errorf("expected name 'Goa Trip', got %q", group.Name)
	}
	if len(group.JoinCode) != 6 {
		t.Errorf("expected 6-char join code, got %q", group.JoinCode)
	}

	members, err := alice.ListMembers(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(members))
	}
	if members[0].UserID != reg.User.ID || members[0].Role != models.RoleAdmin {
		t.Errorf("expected creator as admin, got %+v", members[0])
	}
	if members[0].Name != "alice" {
		t.Errorf("expected member name alice, got %q", members[0].Name)
	}
}

func TestCreateGroupEmptyName(t *testing.T) {
	srv := setupTestServer(t)
	alice, _ := srv.signUp(t, "alice")

	_, err := alice.CreateGroup(context.Background(), "   ")
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestJoinGroup(t *testing.T) {
	srv := setupTestServer(t)
	alice, _ := srv.signUp(t, "alice")
	bob, bobReg := srv.signUp(t, "bob")
	ctx := context.Background()

	group, err := alice.CreateGroup(ctx, "Flat")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	// Bob cannot see the group before joining.
	_, err = bob.GetGroup(ctx, group.ID)
	assertCode(t, err, connect.CodePermissionDenied)

	joined, err := bob.JoinGroup(ctx, " "+group.JoinCode+" ")
	if err != nil {
		t.Fatalf("JoinGroup failed: %v", err)
	}
	if joined.ID != group.ID {
		t.Errorf("expected group %s, got %s", group.ID, joined.ID)
	}

	members, err := bob.ListMembers(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(members))
	}
	if models.IsAdmin(members, bobReg.User.ID) {
		t.Error("joined member should not be admin")
	}

	_, err = bob.JoinGroup(ctx, group.JoinCode)
	assertCode(t, err, connect.CodeAlreadyExists)

	_, err = bob.JoinGroup(ctx, "ZZZZZZ")
	assertCode(t, err, connect.CodeNotFound)
}

func TestListGroups(t *testing.T) {
	srv := setupTestServer(t)
	alice, _ := srv.signUp(t, "alice")
	bob, _ := srv.signUp(t, "bob")
	ctx := context.Background()

	for _, name := range []string{"One", "Two"} {
		if _, err := alice.CreateGroup(ctx, name); err != nil {
			t.Fatalf("CreateGroup(%s) failed: %v", name, err)
		}
	}
	if _, err := bob.CreateGroup(ctx, "Bob's"); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	groups, err := alice.ListGroups(ctx)
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(groups) != 2 {
		t.Errorf("expected 2 groups, got %d", len(groups))
	}
}

func TestAdminOnlyGroupOperations(t *testing.T) {
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

	_, err = bob.UpdateGroup(ctx, group.ID, "Mine now")
	assertCode(t, err, connect.CodePermissionDenied)
	assertCode(t, bob.DeleteGroup(ctx, group.ID), connect.CodePermissionDenied)

	renamed, err := alice.UpdateGroup(ctx, group.ID, "Flat 2B")
	if err != nil {
		t.Fatalf("UpdateGroup failed: %v", err)
	}
	if renamed.Name != "Flat 2B" {
		t.Errorf("expected renamed group, got %q", renamed.Name)
	}

	if err := alice.DeleteGroup(ctx, group.ID); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}
	_, err = alice.GetGroup(ctx, group.ID)
	assertCode(t, err, connect.CodeNotFound)
}

func TestRemoveMember(t *testing.T) {
	srv := setupTestServer(t)
	alice, aliceReg := srv.signUp(t, "alice")
	bob, bobReg := srv.signUp(t, "bob")
	carol, _ := srv.signUp(t, "carol")
	ctx := context.Background()

	group, err := alice.CreateGroup(ctx, "Flat")
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	for _, c := range []interface {
		JoinGroup(context.Context, string) (*models.Group, error)
	}{bob, carol} {
		if _, err := c.JoinGroup(ctx, group.JoinCode); err != nil {
			t.Fatalf("JoinGroup failed: %v", err)
		}
	}

	members, err := alice.ListMembers(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	byUser := make(map[string]models.Member)
	for _, m := range members {
		byUser[m.UserID] = m
	}

	// A plain member cannot remove someone else.
	assertCode(t, carol.RemoveMember(ctx, byUser[bobReg.User.ID].ID), connect.CodePermissionDenied)
	assertCode(t, bob.RemoveMember(ctx, byUser[aliceReg.User.ID].ID), connect.CodePermissionDenied)

	if err := alice.RemoveMember(ctx, byUser[bobReg.User.ID].ID); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	_, err = bob.ListMembers(ctx, group.ID)
	assertCode(t, err, connect.CodePermissionDenied)

	members, err = alice.ListMembers(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("expected 2 members after removal, got %d", len(members))
	}
}
