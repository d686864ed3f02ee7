package models

// Message is a chat message posted in a group.
type Message struct {
	ID       string `json:"id"`
	GroupID  string `json:"group_id"`
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Content  string `json:"content"`

	CreatedAt int64 `json:"created_at"`
}
