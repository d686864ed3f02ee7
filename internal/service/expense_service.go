package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/verdant/internal/models"
	"github.com/mmynk/verdant/internal/storage"
	"github.com/mmynk/verdant/pkg/api"
)

// ExpenseService implements api.ExpenseServiceHandler.
type ExpenseService struct {
	store storage.Store
	pub   Publisher
}

func NewExpenseService(store storage.Store, pub Publisher) *ExpenseService {
	return &ExpenseService{store: store, pub: pub}
}

func validateExpense(title string, amount decimal.Decimal) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalid("title required")
	}
	if !amount.IsPositive() {
		return "", invalid("amount must be positive")
	}
	return title, nil
}

func expenseFields(e *models.Expense) map[string]any {
	return map[string]any{
		"id":       e.ID,
		"group_id": e.GroupID,
		"title":    e.Title,
		"amount":   e.Amount.String(),
		"user_id":  e.UserID,
	}
}

// ListExpenses returns a group's expenses newest first with their reactions.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.GroupRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := memberOf(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpenses(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, storeError("ListExpenses", err)
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: expenses}), nil
}

// CreateExpense records an expense paid by the caller.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	title, err := validateExpense(req.Msg.Title, req.Msg.Amount)
	if err != nil {
		return nil, err
	}
	mode := req.Msg.PaymentMode
	if mode == "" {
		mode = models.PaymentCash
	}
	if !mode.Valid() {
		return nil, invalid("unknown payment mode")
	}
	if _, err := memberOf(ctx, s.store, req.Msg.GroupID, userID); err != nil {
		return nil, err
	}

	category := strings.TrimSpace(req.Msg.Category)
	if category == "" {
		category = "General"
	}
	date := req.Msg.Date
	if date == 0 {
		date = time.Now().UnixMilli()
	}
	expense := &models.Expense{
		GroupID:     req.Msg.GroupID,
		Title:       title,
		Amount:      req.Msg.Amount,
		Category:    category,
		PaymentMode: mode,
		Type:        models.EntryExpense,
		PaidBy:      userID,
		UserID:      userID,
		Date:        date,
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, storeError("CreateExpense", err)
	}

	slog.Info("Expense created", "expense_id", expense.ID, "group_id", expense.GroupID, "amount", expense.Amount)
	notify(s.pub, models.TableExpenses, models.EventInsert, expense.GroupID, expenseFields(expense))
	return connect.NewResponse(&api.ExpenseResponse{Expense: *expense}), nil
}

// editableExpense loads an expense the caller may change: its author or a
// group admin.
func (s *ExpenseService) editableExpense(ctx context.Context, expenseID, userID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, storeError("GetExpense", err)
	}
	m, err := memberOf(ctx, s.store, expense.GroupID, userID)
	if err != nil {
		return nil, err
	}
	if expense.UserID != userID && m.Role != models.RoleAdmin {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotOwner)
	}
	return expense, nil
}

// UpdateExpense changes an expense's title and amount.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.ExpenseResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	title, err := validateExpense(req.Msg.Title, req.Msg.Amount)
	if err != nil {
		return nil, err
	}
	if _, err := s.editableExpense(ctx, req.Msg.ExpenseID, userID); err != nil {
		return nil, err
	}
	expense, err := s.store.UpdateExpense(ctx, req.Msg.ExpenseID, title, req.Msg.Amount)
	if err != nil {
		return nil, storeError("UpdateExpense", err)
	}

	slog.Info("Expense updated", "expense_id", expense.ID)
	notify(s.pub, models.TableExpenses, models.EventUpdate, expense.GroupID, expenseFields(expense))
	return connect.NewResponse(&api.ExpenseResponse{Expense: *expense}), nil
}

// DeleteExpense removes an expense and its reactions.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.Empty], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	expense, err := s.editableExpense(ctx, req.Msg.ExpenseID, userID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		return nil, storeError("DeleteExpense", err)
	}

	slog.Info("Expense deleted", "expense_id", expense.ID)
	notify(s.pub, models.TableExpenses, models.EventDelete, expense.GroupID, expenseFields(expense))
	return connect.NewResponse(&api.Empty{}), nil
}

// React toggles the caller's reaction on an expense.
func (s *ExpenseService) React(ctx context.Context, req *connect.Request[api.ReactRequest]) (*connect.Response[api.ReactResponse], error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if !req.Msg.Kind.Valid() {
		return nil, invalid("unknown reaction type")
	}
	expense, err := s.store.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, storeError("GetExpense", err)
	}
	if _, err := memberOf(ctx, s.store, expense.GroupID, userID); err != nil {
		return nil, err
	}

	reaction, err := s.store.ToggleReaction(ctx, expense.ID, userID, req.Msg.Kind)
	if err != nil {
		return nil, storeError("React", err)
	}

	typ := models.EventInsert
	if reaction == nil {
		typ = models.EventDelete
	}
	notify(s.pub, models.TableReactions, typ, "", map[string]any{
		"expense_id":    expense.ID,
		"user_id":       userID,
		"reaction_type": string(req.Msg.Kind),
	})
	return connect.NewResponse(&api.ReactResponse{Reaction: reaction}), nil
}
