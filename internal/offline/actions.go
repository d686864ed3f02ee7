package offline

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/pkg/api"
)

// Writer is the part of the backend API that changes group data.
// *api.Client implements it.
type Writer interface {
	CreateExpense(ctx context.Context, req *api.CreateExpenseRequest) (*models.Expense, error)
	UpdateExpense(ctx context.Context, req *api.UpdateExpenseRequest) (*models.Expense, error)
	DeleteExpense(ctx context.Context, expenseID string) error
	React(ctx context.Context, expenseID string, kind models.ReactionKind) (*models.Reaction, error)
	SendMessage(ctx context.Context, groupID, content string) (*models.Message, error)
	DeleteMessages(ctx context.Context, ids []string) error
	CreateGoal(ctx context.Context, req *api.CreateGoalRequest) (*models.Goal, error)
	DeleteGoal(ctx context.Context, goalID string) error
	Contribute(ctx context.Context, req *api.ContributeRequest) (*models.Goal, error)
	RemoveMember(ctx context.Context, memberID string) error
	UpdateGroup(ctx context.Context, groupID, name string) (*models.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error
}

// Actions performs mutations on behalf of an open GroupView. Every action
// fails with ErrOffline before touching the network while the view cannot
// mutate. After the call, successful or not, the affected list is
// refetched so the view reflects the server.
type Actions struct {
	view   *GroupView
	writer Writer
}

func NewActions(view *GroupView, writer Writer) *Actions {
	return &Actions{view: view, writer: writer}
}

func (a *Actions) guard(adminOnly bool) error {
	if !a.view.CanMutate() {
		return ErrOffline
	}
	if adminOnly && !a.view.Snapshot().IsAdmin {
		return ErrNotAdmin
	}
	return nil
}

// settle reports a failed call and refetches the affected entity.
func (a *Actions) settle(ctx context.Context, what string, err error, refetch func(context.Context) error) error {
	if err != nil {
		a.view.fail("Failed to "+what, err)
	}
	if refetch != nil {
		if rerr := refetch(ctx); rerr != nil && err == nil {
			a.view.opts.Logger.Debug("Refetch after mutation failed", "action", what, "error", rerr)
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

func (a *Actions) CreateExpense(ctx context.Context, title string, amount decimal.Decimal, category string, mode models.PaymentMode) (*models.Expense, error) {
	if err := a.guard(false); err != nil {
		return nil, err
	}
	e, err := a.writer.CreateExpense(ctx, &api.CreateExpenseRequest{
		GroupID:     a.view.groupID,
		Title:       title,
		Amount:      amount,
		Category:    category,
		PaymentMode: mode,
	})
	return e, a.settle(ctx, "add expense", err, a.view.RefetchExpenses)
}

func (a *Actions) UpdateExpense(ctx context.Context, expenseID, title string, amount decimal.Decimal) (*models.Expense, error) {
	if err := a.guard(false); err != nil {
		return nil, err
	}
	e, err := a.writer.UpdateExpense(ctx, &api.UpdateExpenseRequest{ExpenseID: expenseID, Title: title, Amount: amount})
	return e, a.settle(ctx, "update expense", err, a.view.RefetchExpenses)
}

// DeleteExpense removes the expense from the view immediately. If the
// server rejects the delete, the refetch brings it back.
func (a *Actions) DeleteExpense(ctx context.Context, expenseID string) error {
	if err := a.guard(false); err != nil {
		return err
	}
	a.view.dropExpense(expenseID)
	err := a.writer.DeleteExpense(ctx, expenseID)
	if err == nil {
		return nil
	}
	return a.settle(ctx, "delete expense", err, a.view.RefetchExpenses)
}

// React toggles the user's reaction on an expense.
func (a *Actions) React(ctx context.Context, expenseID string, kind models.ReactionKind) error {
	if err := a.guard(false); err != nil {
		return err
	}
	_, err := a.writer.React(ctx, expenseID, kind)
	return a.settle(ctx, "react", err, a.view.RefetchExpenses)
}

func (a *Actions) SendMessage(ctx context.Context, content string) error {
	if err := a.guard(false); err != nil {
		return err
	}
	_, err := a.writer.SendMessage(ctx, a.view.groupID, content)
	return a.settle(ctx, "send message", err, a.view.RefetchMessages)
}

// DeleteMessages deletes the user's own messages.
func (a *Actions) DeleteMessages(ctx context.Context, ids []string) error {
	if err := a.guard(false); err != nil {
		return err
	}
	mine := make(map[string]bool)
	for _, m := range a.view.Snapshot().Messages {
		if m.UserID == a.view.userID {
			mine[m.ID] = true
		}
	}
	for _, id := range ids {
		if !mine[id] {
			return ErrNotOwner
		}
	}
	err := a.writer.DeleteMessages(ctx, ids)
	return a.settle(ctx, "delete messages", err, a.view.RefetchMessages)
}

func (a *Actions) CreateGoal(ctx context.Context, title, description string, target decimal.Decimal) (*models.Goal, error) {
	if err := a.guard(true); err != nil {
		return nil, err
	}
	g, err := a.writer.CreateGoal(ctx, &api.CreateGoalRequest{
		GroupID:      a.view.groupID,
		Title:        title,
		Description:  description,
		TargetAmount: target,
	})
	return g, a.settle(ctx, "create goal", err, a.view.RefetchGoals)
}

func (a *Actions) DeleteGoal(ctx context.Context, goalID string) error {
	if err := a.guard(true); err != nil {
		return err
	}
	err := a.writer.DeleteGoal(ctx, goalID)
	return a.settle(ctx, "delete goal", err, a.view.RefetchGoals)
}

func (a *Actions) Contribute(ctx context.Context, goalID string, amount decimal.Decimal, note string) error {
	if err := a.guard(false); err != nil {
		return err
	}
	_, err := a.writer.Contribute(ctx, &api.ContributeRequest{GoalID: goalID, Amount: amount, Note: note})
	return a.settle(ctx, "contribute", err, a.view.RefetchGoals)
}

func (a *Actions) RemoveMember(ctx context.Context, memberID string) error {
	if err := a.guard(true); err != nil {
		return err
	}
	err := a.writer.RemoveMember(ctx, memberID)
	return a.settle(ctx, "remove member", err, a.view.RefetchMembers)
}

// RenameGroup updates the group name shown by the view.
func (a *Actions) RenameGroup(ctx context.Context, name string) error {
	if err := a.guard(true); err != nil {
		return err
	}
	g, err := a.writer.UpdateGroup(ctx, a.view.groupID, name)
	if err != nil {
		return a.settle(ctx, "rename group", err, nil)
	}
	a.view.update(func(s *Snapshot) { s.Group = g })
	return nil
}

// DeleteGroup deletes the group and closes the view.
func (a *Actions) DeleteGroup(ctx context.Context) error {
	if err := a.guard(true); err != nil {
		return err
	}
	if err := a.writer.DeleteGroup(ctx, a.view.groupID); err != nil {
		return a.settle(ctx, "delete group", err, nil)
	}
	a.view.Close()
	return nil
}
