package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/verdant/internal/middleware"
	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/storage"
	"github.com/mmynk/verdant/pkg/api"
)

const maxGroupName = 80

// GroupService implements api.GroupServiceHandler.
type GroupService struct {
	store storage.Store
	pub   Publisher
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, pub Publisher) *GroupService {
	return &GroupService{store: store, pub: pub}
}

func groupName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("group name required")
	}
	if len(name) > maxGroupName {
		return "", invalid("group name too long")
	}
	return name, nil
}

func memberFields(m *models.Member) map[string]any {
	return map[string]any{
		"id":       m.ID,
		"group_id": m.GroupID,
		"user_id":  m.UserID,
		"role":     string(m.Role),
	}
}

// CreateGroup creates a group with the caller as its admin.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	name, err := groupName(req.Msg.Name)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received", "name", name, "user_id", userID)

	group := &models.Group{Name: name, CreatedBy: userID}
	owner := &models.Member{
		UserID: userID,
		Name:   middleware.GetName(ctx),
		Email:  middleware.GetEmail(ctx),
	}
	if err := s.store.CreateGroup(ctx, group, owner); err != nil {
		return nil, storeError("CreateGroup", err)
	}

	slog.Info("Group created", "group_id", group.ID, "join_code", group.JoinCode)
	notify(s.pub, models.TableMembers, models.EventInsert, group.ID, memberFields(owner))
	return connect.NewResponse(&api.GroupResponse{Group: *group}), nil
}

// GetGroup returns a group's metadata to one of its members.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.GroupResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	group, err := s.store.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, storeError("GetGroup", err)
	}
	if _, err := memberOf(ctx, s.store, group.ID, userID); err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GroupResponse{Group: *group}), nil
}

// ListGroups returns the caller's groups.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := s.store.ListGroupsForUser(ctx, userID)
	if err != nil {
		return nil, storeError("ListGroups", err)
	}
	slog.Debug("ListGroups successful", "user_id", userID, "count", len(groups))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: groups}), nil
}

// JoinGroup adds the caller to the group owning the join code.
func (s *GroupService) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(req.Msg.JoinCode))
	if code == "" {
		return nil, invalid("join_code required")
	}

	group, err := s.store.GetGroupByJoinCode(ctx, code)
	if err != nil {
		return nil, storeError("JoinGroup", err)
	}
	member := &models.Member{
		GroupID: group.ID,
		UserID:  userID,
		Role:    models.RoleMember,
		Name:    middleware.GetName(ctx),
		Email:   middleware.GetEmail(ctx),
	}
	if err := s.store.AddMember(ctx, member); err != nil {
		return nil, storeError("JoinGroup", err)
	}

	slog.Info("Member joined", "group_id", group.ID, "user_id", userID)
	notify(s.pub, models.TableMembers, models.EventInsert, group.ID, memberFields(member))
	return connect.NewResponse(&api.GroupResponse{Group: *group}), nil
}

// UpdateGroup renames a group. Admin only.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	name, err := groupName(req.Msg.Name)
	if err != nil {
		return nil, err
	}
	if _, err := adminOf(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}
	group, err := s.store.RenameGroup(ctx, req.Msg.GroupID, name)
	if err != nil {
		return nil, storeError("UpdateGroup", err)
	}
	slog.Info("Group renamed", "group_id", group.ID, "name", name)
	return connect.NewResponse(&api.GroupResponse{Group: *group}), nil
}

// DeleteGroup removes a group and everything in it. Admin only.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.Empty], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := adminOf(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}
	if err := s.store.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, storeError("DeleteGroup", err)
	}
	slog.Info("Group deleted", "group_id", req.Msg.GroupID)
	return connect.NewResponse(&api.Empty{}), nil
}

// ListMembers returns the members of a group, oldest first.
func (s *GroupService) ListMembers(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.ListMembersResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := memberOf(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}
	members, err := s.store.ListMembers(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, storeError("ListMembers", err)
	}
	return connect.NewResponse(&api.ListMembersResponse{Members: members}), nil
}

// RemoveMember removes a membership. Admins may remove anyone; members may
// only remove themselves.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.Empty], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	target, err := s.store.GetMemberByID(ctx, req.Msg.MemberID)
	if err != nil {
		return nil, storeError("RemoveMember", err)
	}
	if target.UserID != userID {
		if _, err := adminOf(ctx, s.store, target.GroupID, userID); err != nil {
			return nil, err
		}
	}
	if err := s.store.DeleteMember(ctx, target.ID); err != nil {
		return nil, storeError("RemoveMember", err)
	}

	slog.Info("Member removed", "group_id", target.GroupID, "member_id", target.ID, "by", userID)
	notify(s.pub, models.TableMembers, models.EventDelete, target.GroupID, memberFields(target))
	return connect.NewResponse(&api.Empty{}), nil
}
