// Package service implements the Connect handlers of the Verdant backend.
// Every group-scoped call checks the caller's membership before touching
// data, and every successful write is announced on the realtime hub.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/verdant/internal/auth"
	"github.com/mmynk/verdant/internal/middleware"
	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/storage"
)

var (
	errNotMember = errors.New("not a member of this group")
	errNotAdmin  = errors.New("only group admins can do this")
	errNotOwner  = errors.New("only the author can do this")
)

// Publisher receives change events after successful writes.
type Publisher interface {
	Publish(ev models.ChangeEvent)
}

// caller returns the authenticated user ID from ctx.
func caller(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// storeError maps storage errors onto Connect codes.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	slog.Error(op+" failed", "error", err)
	return connect.NewError(connect.CodeInternal, err)
}

func invalid(msg string) error {
	return connect.NewError(connect.CodeInvalidArgument, errors.New(msg))
}

// memberOf loads userID's membership of groupID. A missing group or a
// missing membership are both reported as PermissionDenied so outsiders
// cannot probe group IDs.
func memberOf(ctx context.Context, store storage.Store, groupID, userID string) (*models.Member, error) {
	if groupID == "" {
		return nil, invalid("group_id required")
	}
	m, err := store.GetMember(ctx, groupID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotMember)
	}
	if err != nil {
		return nil, storeError("GetMember", err)
	}
	return m, nil
}

func adminOf(ctx context.Context, store storage.Store, groupID, userID string) (*models.Member, error) {
	m, err := memberOf(ctx, store, groupID, userID)
	if err != nil {
		return nil, err
	}
	if m.Role != models.RoleAdmin {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotAdmin)
	}
	return m, nil
}

// notify publishes a change of table. groupID is dropped for tables that
// are not group scoped.
func notify(pub Publisher, table models.Table, typ models.EventType, groupID string, fields map[string]any) {
	if pub == nil {
		return
	}
	rec, err := models.NewRecord(fields)
	if err != nil {
		slog.Error("Failed to build change record", "table", table, "error", err)
		return
	}
	if !table.GroupScoped() {
		groupID = ""
	}
	pub.Publish(models.ChangeEvent{
		Table:      table,
		Type:       typ,
		GroupID:    groupID,
		Record:     rec,
		CommitTime: time.Now().UnixMilli(),
	})
}
