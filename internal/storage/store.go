// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/verdant/internal/models"
)

var (
	// ErrNotFound is wrapped by every lookup that finds no row.
	ErrNotFound = errors.New("not found")

	// ErrConflict is wrapped when a write violates a uniqueness constraint.
	ErrConflict = errors.New("already exists")
)

// Store defines the interface for the relational backend.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// CreateUser persists a new user. Returns ErrConflict if the email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrNotFound if no user has that email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// CreateGroup persists a group together with its first (admin) member.
	// ID, JoinCode and timestamps are assigned when empty.
	CreateGroup(ctx context.Context, group *models.Group, owner *models.Member) error

	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	GetGroupByJoinCode(ctx context.Context, code string) (*models.Group, error)

	// ListGroupsForUser returns the groups userID is a member of, newest first.
	ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error)

	RenameGroup(ctx context.Context, groupID, name string) (*models.Group, error)

	// DeleteGroup removes the group and, by cascade, everything in it.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddMember returns ErrConflict if the user is already in the group.
	AddMember(ctx context.Context, member *models.Member) error

	// GetMember looks up userID's membership of groupID.
	GetMember(ctx context.Context, groupID, userID string) (*models.Member, error)

	GetMemberByID(ctx context.Context, memberID string) (*models.Member, error)
	ListMembers(ctx context.Context, groupID string) ([]models.Member, error)
	DeleteMember(ctx context.Context, memberID string) error

	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	UpdateExpense(ctx context.Context, expenseID, title string, amount decimal.Decimal) (*models.Expense, error)
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpenses returns the group's expenses newest first, each carrying
	// its reactions.
	ListExpenses(ctx context.Context, groupID string) ([]models.Expense, error)

	// ToggleReaction applies kind for (expenseID, userID): re-applying the
	// current kind removes it, any other kind replaces it. Returns the
	// resulting reaction, or nil when it was removed.
	ToggleReaction(ctx context.Context, expenseID, userID string, kind models.ReactionKind) (*models.Reaction, error)

	CreateMessage(ctx context.Context, msg *models.Message) error

	// ListMessages returns the group's messages oldest first.
	ListMessages(ctx context.Context, groupID string) ([]models.Message, error)

	GetMessages(ctx context.Context, messageIDs []string) ([]models.Message, error)
	DeleteMessages(ctx context.Context, messageIDs []string) error

	CreateGoal(ctx context.Context, goal *models.Goal) error
	GetGoal(ctx context.Context, goalID string) (*models.Goal, error)

	// ListGoals returns the group's goals newest first, each carrying its
	// contributions.
	ListGoals(ctx context.Context, groupID string) ([]models.Goal, error)

	DeleteGoal(ctx context.Context, goalID string) error

	// AddContribution records c and adds its amount to the goal in one
	// transaction, completing the goal once the target is reached.
	AddContribution(ctx context.Context, c *models.Contribution) (*models.Goal, error)

	// Close releases any resources held by the store.
	Close() error
}
