package service

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/realtime"
	"github.com/mmynk/verdant/internal/storage"
	"github.com/mmynk/verdant/pkg/api"
)

// RealtimeService implements api.RealtimeServiceHandler by streaming hub
// events to members of a group.
type RealtimeService struct {
	store storage.Store
	hub   *realtime.Hub
}

func NewRealtimeService(store storage.Store, hub *realtime.Hub) *RealtimeService {
	return &RealtimeService{store: store, hub: hub}
}

// Subscribe streams change events for a group until the client goes away.
func (s *RealtimeService) Subscribe(ctx context.Context, req *connect.Request[api.GroupRequest], stream *connect.ServerStream[models.ChangeEvent]) error {
	userID, err := caller(ctx)
	if err != nil {
		return err
	}
	if _, err := memberOf(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return err
	}

	sub := s.hub.Subscribe(req.Msg.GroupID)
	defer sub.Close()
	slog.Info("Realtime subscription opened", "group_id", req.Msg.GroupID, "user_id", userID)

	// The acknowledgement flushes the response headers, so the client's
	// call returns once the subscription is live.
	ack := models.ChangeEvent{Type: models.EventSubscribed, GroupID: req.Msg.GroupID, CommitTime: time.Now().UnixMilli()}
	if err := stream.Send(&ack); err != nil {
		slog.Debug("Realtime send failed", "group_id", req.Msg.GroupID, "error", err)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("Realtime subscription closed", "group_id", req.Msg.GroupID, "user_id", userID)
			return nil
		case <-sub.Ready():
			for _, ev := range sub.Drain() {
				if err := stream.Send(&ev); err != nil {
					slog.Debug("Realtime send failed", "group_id", req.Msg.GroupID, "error", err)
					return nil
				}
			}
		}
	}
}
