package models

import "time"

// MessageGroup is the conversation scope: tied to a project, or a direct
// conversation when ProjectID is nil.
type MessageGroup struct {
	ID        int64     `json:"id" db:"id" example:"1"`
	ProjectID *int64    `json:"projectId,omitempty" db:"project_id"`
	Name      string    `json:"name" db:"name" example:"Brand identity refresh"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// Relations (populated when needed)
	MemberIDs   []int64 `json:"memberIds,omitempty"`
	UnreadCount int64   `json:"unreadCount,omitempty"`
}

// Message defines a single chat message in a group
type Message struct {
	ID        int64     `json:"id" db:"id" example:"42"`
	GroupID   int64     `json:"groupId" db:"group_id" example:"1"`
	SenderID  int64     `json:"senderId" db:"sender_id" example:"5"`
	Content   string    `json:"content" db:"content"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// Relations (populated when needed)
	Sender *User `json:"sender,omitempty"`
}
