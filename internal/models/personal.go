package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategories are created with the local database and cannot be
// deleted.
var DefaultCategories = []string{
	"Groceries", "Dining", "Travel", "Utilities",
	"Shopping", "Food", "Medicine", "Other",
}

// FallbackCategory is used when nothing else matches.
const FallbackCategory = "Other"

// IsDefaultCategory reports whether name is one of DefaultCategories.
func IsDefaultCategory(name string) bool {
	for _, c := range DefaultCategories {
		if c == name {
			return true
		}
	}
	return false
}

// Category is a user-managed ledger category.
type Category struct {
	ID   int64
	Name string
}

// Settings holds the user's budget and emergency fund.
type Settings struct {
	MonthlyBudget        decimal.Decimal
	EmergencyFundGoal    decimal.Decimal
	EmergencyFundCurrent decimal.Decimal
	UserName             string
}

// Progress is the share of the emergency fund goal reached, capped at 1.
func (s Settings) Progress() decimal.Decimal {
	if !s.EmergencyFundGoal.IsPositive() {
		return decimal.Zero
	}
	p := s.EmergencyFundCurrent.Div(s.EmergencyFundGoal)
	if p.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return p
}

type SavingsType string

const (
	SavingsDeposit    SavingsType = "deposit"
	SavingsWithdrawal SavingsType = "withdrawal"
	// SavingsGoalUpdate records a new goal; Amount is the goal.
	SavingsGoalUpdate SavingsType = "goal_update"
)

func (t SavingsType) Valid() bool {
	switch t {
	case SavingsDeposit, SavingsWithdrawal, SavingsGoalUpdate:
		return true
	}
	return false
}

// SavingsTransaction is one entry in the emergency fund history.
type SavingsTransaction struct {
	ID     int64
	Amount decimal.Decimal
	Date   time.Time
	Type   SavingsType
	Note   string
}
