package models

import "github.com/shopspring/decimal"

// EntryType distinguishes money coming in from money going out.
type EntryType string

const (
	EntryExpense EntryType = "expense"
	EntryIncome  EntryType = "income"
)

// PaymentMode is how an expense was paid.
type PaymentMode string

const (
	PaymentCash   PaymentMode = "Cash"
	PaymentCard   PaymentMode = "Card"
	PaymentOnline PaymentMode = "Online"
	PaymentOther  PaymentMode = "Other"
)

// Valid reports whether m is one of the known payment modes.
func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentOnline, PaymentOther:
		return true
	}
	return false
}

// ReactionKind is the kind of reaction a member leaves on an expense.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
	ReactionNeutral ReactionKind = "neutral"
)

// Valid reports whether k is one of the known reaction kinds.
func (k ReactionKind) Valid() bool {
	switch k {
	case ReactionLike, ReactionDislike, ReactionNeutral:
		return true
	}
	return false
}

// Expense is a shared expense recorded in a group.
type Expense struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	Title       string          `json:"title"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	PaymentMode PaymentMode     `json:"payment_mode"`
	Type        EntryType       `json:"type"`

	// PaidBy is the user ID of the member who paid.
	PaidBy string `json:"paid_by"`

	// UserID is the user ID of the member who recorded the expense.
	UserID string `json:"user_id"`

	Date      int64 `json:"date"`
	CreatedAt int64 `json:"created_at"`

	// Reactions holds at most one reaction per user.
	Reactions []Reaction `json:"expense_reactions,omitempty"`
}

// ReactionOf returns the reaction userID left on e, if any.
func (e *Expense) ReactionOf(userID string) (ReactionKind, bool) {
	for _, r := range e.Reactions {
		if r.UserID == userID {
			return r.Kind, true
		}
	}
	return "", false
}

// Reaction is a single member's reaction to an expense.
// (ExpenseID, UserID) is unique.
type Reaction struct {
	ExpenseID string       `json:"expense_id,omitempty"`
	UserID    string       `json:"user_id"`
	Kind      ReactionKind `json:"reaction_type"`
}
