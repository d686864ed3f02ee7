package models

import "github.com/shopspring/decimal"

// GoalStatus is the lifecycle state of a savings goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalCancelled GoalStatus = "cancelled"
)

// Goal is a shared savings target inside a group.
type Goal struct {
	ID            string          `json:"id"`
	GroupID       string          `json:"group_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Currency      string          `json:"currency"`
	Status        GoalStatus      `json:"status"`
	CreatedBy     string          `json:"created_by"`
	CreatedByName string          `json:"created_by_name"`
	CreatedAt     int64           `json:"created_at"`
	UpdatedAt     int64           `json:"updated_at"`

	Contributions []Contribution `json:"goal_contributions,omitempty"`
}

// Contribution is money a member put towards a goal.
type Contribution struct {
	ID            string          `json:"id"`
	GoalID        string          `json:"goal_id"`
	UserID        string          `json:"user_id"`
	UserName      string          `json:"user_name"`
	Amount        decimal.Decimal `json:"amount"`
	Note          string          `json:"note,omitempty"`
	ContributedAt int64           `json:"contributed_at"`
}
