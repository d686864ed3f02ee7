package service

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"connectrpc.com/connect"

	"github.com/mmynk/verdant/internal/middleware"
	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/storage"
	"github.com/mmynk/verdant/pkg/api"
)

const maxMessageLen = 2000

// ChatService implements api.ChatServiceHandler.
type ChatService struct {
	store storage.Store
	pub   Publisher
}

func NewChatService(store storage.Store, pub Publisher) *ChatService {
	return &ChatService{store: store, pub: pub}
}

// ListMessages returns a group's chat oldest first.
func (s *ChatService) ListMessages(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.ListMessagesResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := memberOf(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, storeError("ListMessages", err)
	}
	return connect.NewResponse(&api.ListMessagesResponse{Messages: msgs}), nil
}

func (s *ChatService) SendMessage(ctx context.Context, req *connect.Request[api.SendMessageRequest]) (*connect.Response[api.MessageResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Msg.Content)
	if content == "" {
		return nil, invalid("message is empty")
	}
	if utf8.RuneCountInString(content) > maxMessageLen {
		return nil, invalid("message too long")
	}
	m, err := memberOf(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	name := m.Name
	if name == "" {
		name = middleware.GetName(ctx)
	}
	msg := &models.Message{
		GroupID:  req.Msg.GroupID,
		UserID:   userID,
		UserName: name,
		Content:  content,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, storeError("SendMessage", err)
	}

	notify(s.pub, models.TableMessages, models.EventInsert, msg.GroupID, map[string]any{
		"id":       msg.ID,
		"group_id": msg.GroupID,
		"user_id":  msg.UserID,
	})
	return connect.NewResponse(&api.MessageResponse{Message: *msg}), nil
}

// DeleteMessages deletes a batch of the caller's own messages. The batch
// is rejected as a whole if any message is missing or foreign.
func (s *ChatService) DeleteMessages(ctx context.Context, req *connect.Request[api.DeleteMessagesRequest]) (*connect.Response[api.Empty], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if len(req.Msg.MessageIDs) == 0 {
		return nil, invalid("message_ids required")
	}
	ids := dedupe(req.Msg.MessageIDs)

	msgs, err := s.store.GetMessages(ctx, ids)
	if err != nil {
		return nil, storeError("GetMessages", err)
	}
	if len(msgs) != len(ids) {
		return nil, connect.NewError(connect.CodeNotFound, storage.ErrNotFound)
	}
	for _, m := range msgs {
		if m.UserID != userID {
			return nil, connect.NewError(connect.CodePermissionDenied, errNotOwner)
		}
	}

	if err := s.store.DeleteMessages(ctx, ids); err != nil {
		return nil, storeError("DeleteMessages", err)
	}

	slog.Info("Messages deleted", "count", len(ids), "user_id", userID)
	for _, m := range msgs {
		notify(s.pub, models.TableMessages, models.EventDelete, m.GroupID, map[string]any{
			"id":       m.ID,
			"group_id": m.GroupID,
		})
	}
	return connect.NewResponse(&api.Empty{}), nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
