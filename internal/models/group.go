package models

// Role is a member's role inside a group.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Group is the denormalized metadata of a shared expense group.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates", "Goa Trip").
	Name string `json:"name"`

	// JoinCode is the short uppercase code other users enter to join.
	JoinCode string `json:"join_code"`

	// CreatedBy is the user ID of the group's creator.
	CreatedBy string `json:"created_by_user_id"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// Member is one user's membership in a group.
type Member struct {
	ID       string `json:"id"`
	GroupID  string `json:"group_id"`
	UserID   string `json:"user_id"`
	Role     Role   `json:"role"`
	Name     string `json:"member_name"`
	Email    string `json:"member_email"`
	JoinedAt int64  `json:"joined_at"`
}

// IsAdmin reports whether userID holds the admin role in members.
func IsAdmin(members []Member, userID string) bool {
	for _, m := range members {
		if m.UserID == userID {
			return m.Role == RoleAdmin
		}
	}
	return false
}
