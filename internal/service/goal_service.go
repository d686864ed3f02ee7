package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/verdant/internal/middleware"
	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/storage"
	"github.com/mmynk/verdant/pkg/api"
)

var errGoalClosed = errors.New("goal is no longer active")

// GoalService implements api.GoalServiceHandler.
type GoalService struct {
	store storage.Store
	pub   Publisher
}

func NewGoalService(store storage.Store, pub Publisher) *GoalService {
	return &GoalService{store: store, pub: pub}
}

func goalFields(g *models.Goal) map[string]any {
	return map[string]any{
		"id":             g.ID,
		"group_id":       g.GroupID,
		"status":         string(g.Status),
		"current_amount": g.CurrentAmount.String(),
	}
}

func (s *GoalService) ListGoals(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.ListGoalsResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := memberOf(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}
	goals, err := s.store.ListGoals(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, storeError("ListGoals", err)
	}
	return connect.NewResponse(&api.ListGoalsResponse{Goals: goals}), nil
}

// CreateGoal adds a savings goal to a group. Admin only.
func (s *GoalService) CreateGoal(ctx context.Context, req *connect.Request[api.CreateGoalRequest]) (*connect.Response[api.GoalResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Msg.Title)
	if title == "" {
		return nil, invalid("title required")
	}
	if !req.Msg.TargetAmount.IsPositive() {
		return nil, invalid("target amount must be positive")
	}
	admin, err := adminOf(ctx, s.store, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}

	name := admin.Name
	if name == "" {
		name = middleware.GetName(ctx)
	}
	goal := &models.Goal{
		GroupID:       req.Msg.GroupID,
		Title:         title,
		Description:   strings.TrimSpace(req.Msg.Description),
		TargetAmount:  req.Msg.TargetAmount,
		Currency:      strings.ToUpper(strings.TrimSpace(req.Msg.Currency)),
		CreatedBy:     userID,
		CreatedByName: name,
	}
	if err := s.store.CreateGoal(ctx, goal); err != nil {
		return nil, storeError("CreateGoal", err)
	}

	slog.Info("Goal created", "goal_id", goal.ID, "group_id", goal.GroupID, "target", goal.TargetAmount)
	notify(s.pub, models.TableGoals, models.EventInsert, goal.GroupID, goalFields(goal))
	return connect.NewResponse(&api.GoalResponse{Goal: *goal}), nil
}

// DeleteGoal removes a goal and its contributions. Admin only.
func (s *GoalService) DeleteGoal(ctx context.Context, req *connect.Request[api.DeleteGoalRequest]) (*connect.Response[api.Empty], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	goal, err := s.store.GetGoal(ctx, req.Msg.GoalID)
	if err != nil {
		return nil, storeError("GetGoal", err)
	}
	if _, err := adminOf(ctx, s.store, goal.GroupID, userID); err != nil {
		return nil, err
	}
	if err := s.store.DeleteGoal(ctx, goal.ID); err != nil {
		return nil, storeError("DeleteGoal", err)
	}

	slog.Info("Goal deleted", "goal_id", goal.ID)
	notify(s.pub, models.TableGoals, models.EventDelete, goal.GroupID, goalFields(goal))
	return connect.NewResponse(&api.Empty{}), nil
}

// Contribute adds the caller's money to an active goal.
func (s *GoalService) Contribute(ctx context.Context, req *connect.Request[api.ContributeRequest]) (*connect.Response[api.GoalResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !req.Msg.Amount.IsPositive() {
		return nil, invalid("amount must be positive")
	}
	goal, err := s.store.GetGoal(ctx, req.Msg.GoalID)
	if err != nil {
		return nil, storeError("GetGoal", err)
	}
	m, err := memberOf(ctx, s.store, goal.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if goal.Status != models.GoalActive {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errGoalClosed)
	}

	name := m.Name
	if name == "" {
		name = middleware.GetName(ctx)
	}
	c := &models.Contribution{
		GoalID:   goal.ID,
		UserID:   userID,
		UserName: name,
		Amount:   req.Msg.Amount,
		Note:     strings.TrimSpace(req.Msg.Note),
	}
	updated, err := s.store.AddContribution(ctx, c)
	if err != nil {
		return nil, storeError("Contribute", err)
	}

	slog.Info("Contribution added", "goal_id", goal.ID, "amount", c.Amount, "status", updated.Status)
	notify(s.pub, models.TableContributions, models.EventInsert, "", map[string]any{
		"id":      c.ID,
		"goal_id": c.GoalID,
		"user_id": c.UserID,
		"amount":  c.Amount.String(),
	})
	notify(s.pub, models.TableGoals, models.EventUpdate, updated.GroupID, goalFields(updated))
	return connect.NewResponse(&api.GoalResponse{Goal: *updated}), nil
}
