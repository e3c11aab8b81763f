package websocket

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tiroapp/tiro-backend/internal/app/services"
)

// Handler upgrades authenticated connections into group chat clients
type Handler struct {
	hub            *Hub
	messageService *services.MessageService
	logger         zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(
	hub *Hub,
	messageService *services.MessageService,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		hub:            hub,
		messageService: messageService,
		logger:         logger,
	}
}

// HandleConnection godoc
// @Summary Establish a WebSocket connection for real-time chat
// @Description Upgrades HTTP connection to a WebSocket connection for a message group
// @Tags messages, websocket
// @Produce json
// @Security BearerAuth
// @Param id path int true "Group ID"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 400 {object} gin.H "Invalid group ID"
// @Failure 401 {object} gin.H "Unauthorized: JWT token missing or invalid"
// @Failure 403 {object} gin.H "Forbidden: caller is not a member of the group"
// @Router /messages/groups/{id}/ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	groupID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	// Set by the auth middleware.
	userIDValue, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context"})
		return
	}
	userID, ok := userIDValue.(int64)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID format"})
		return
	}

	isMember, err := h.messageService.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("groupID", groupID).
			Int64("userID", userID).
			Msg("Failed to check group membership")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check group membership"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this group"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("groupID", groupID).
			Int64("userID", userID).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:     h.hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		userID:  userID,
		groupID: groupID,
		sink:    h,
		logger:  h.logger,
	}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()

	h.logger.Info().
		Int64("groupID", groupID).
		Int64("userID", userID).
		Str("remoteAddr", conn.RemoteAddr().String()).
		Msg("WebSocket connection established")
}

// HandleInbound persists a client frame. The message service broadcasts the
// stored message back through the hub, so delivery happens exactly once.
func (h *Handler) HandleInbound(groupID, userID int64, content string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := h.messageService.Send(ctx, groupID, userID, content); err != nil {
		h.logger.Error().
			Err(err).
			Int64("groupID", groupID).
			Int64("senderID", userID).
			Msg("Failed to persist WebSocket message")
	}
}
