package dto

import (
	"time"

	"github.com/tiroapp/tiro-backend/internal/app/models"
)

// SendMessageRequest posts a message into a group
type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=4000"`
}

// CreateDirectGroupRequest opens a direct conversation with another user
type CreateDirectGroupRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

// MessageResponse is the public view of a chat message
type MessageResponse struct {
	ID        int64     `json:"id"`
	GroupID   int64     `json:"groupId"`
	SenderID  int64     `json:"senderId"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromMessage converts a models.Message to a MessageResponse
func FromMessage(m *models.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		GroupID:   m.GroupID,
		SenderID:  m.SenderID,
		Content:   m.Content,
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}

// GroupResponse is the public view of a message group
type GroupResponse struct {
	ID          int64  `json:"id"`
	ProjectID   *int64 `json:"projectId,omitempty"`
	Name        string `json:"name"`
	UnreadCount int64  `json:"unreadCount"`
}

// FromGroup converts a models.MessageGroup to a GroupResponse
func FromGroup(g *models.MessageGroup) GroupResponse {
	return GroupResponse{
		ID:          g.ID,
		ProjectID:   g.ProjectID,
		Name:        g.Name,
		UnreadCount: g.UnreadCount,
	}
}
