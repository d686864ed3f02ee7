package api

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/verdant/internal/models"
)

// Empty is the response of RPCs that return nothing.
type Empty struct{}

// GroupRequest addresses a single group.
type GroupRequest struct {
	GroupID string `json:"group_id"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

type JoinGroupRequest struct {
	JoinCode string `json:"join_code"`
}

type UpdateGroupRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

type GroupResponse struct {
	Group models.Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []models.Group `json:"groups"`
}

type ListMembersResponse struct {
	Members []models.Member `json:"members"`
}

type RemoveMemberRequest struct {
	MemberID string `json:"member_id"`
}

type ListExpensesResponse struct {
	Expenses []models.Expense `json:"expenses"`
}

type CreateExpenseRequest struct {
	GroupID     string             `json:"group_id"`
	Title       string             `json:"title"`
	Amount      decimal.Decimal    `json:"amount"`
	Category    string             `json:"category,omitempty"`
	PaymentMode models.PaymentMode `json:"payment_mode,omitempty"`

	// Date is Unix milliseconds; zero means now.
	Date int64 `json:"date,omitempty"`
}

type UpdateExpenseRequest struct {
	ExpenseID string          `json:"expense_id"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type ExpenseResponse struct {
	Expense models.Expense `json:"expense"`
}

type ReactRequest struct {
	ExpenseID string              `json:"expense_id"`
	Kind      models.ReactionKind `json:"reaction_type"`
}

// ReactResponse carries the caller's resulting reaction; nil means the
// reaction was toggled off.
type ReactResponse struct {
	Reaction *models.Reaction `json:"reaction,omitempty"`
}

type ListMessagesResponse struct {
	Messages []models.Message `json:"messages"`
}

type SendMessageRequest struct {
	GroupID string `json:"group_id"`
	Content string `json:"content"`
}

type MessageResponse struct {
	Message models.Message `json:"message"`
}

type DeleteMessagesRequest struct {
	MessageIDs []string `json:"message_ids"`
}

type ListGoalsResponse struct {
	Goals []models.Goal `json:"goals"`
}

type CreateGoalRequest struct {
	GroupID      string          `json:"group_id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	Currency     string          `json:"currency,omitempty"`
}

type DeleteGoalRequest struct {
	GoalID string `json:"goal_id"`
}

type ContributeRequest struct {
	GoalID string          `json:"goal_id"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
}

type GoalResponse struct {
	Goal models.Goal `json:"goal"`
}
