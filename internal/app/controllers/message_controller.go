package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tiroapp/tiro-backend/internal/app/models/dto"
	"github.com/tiroapp/tiro-backend/internal/app/services"
	"github.com/tiroapp/tiro-backend/internal/middleware"
	"github.com/tiroapp/tiro-backend/internal/pkg/helpers"
)

// MessageController handles message groups and messages
type MessageController struct {
	messageService *services.MessageService
	logger         zerolog.Logger
}

// NewMessageController creates a new MessageController
func NewMessageController(messageService *services.MessageService, logger zerolog.Logger) *MessageController {
	return &MessageController{messageService: messageService, logger: logger}
}

// ListGroups returns the caller's message groups with unread counts
// @Summary List my message groups
// @Tags messages
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Security BearerAuth
// @Router /messages/groups [get]
func (c *MessageController) ListGroups(ctx *gin.Context) {
	userID, _ := middleware.GetUserID(ctx)
	groups, err := c.messageService.ListMyGroups(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	items := make([]dto.GroupResponse, 0, len(groups))
	for i := range groups {
		items = append(items, dto.FromGroup(&groups[i]))
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: items, Timestamp: time.Now()})
}

// GetMessages returns a group's messages, newest first
// @Summary Get a group's messages
// @Tags messages
// @Produce json
// @Param id path int true "Group ID"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse}
// @Failure 403 {object} dto.ErrorResponse "Not a member"
// @Security BearerAuth
// @Router /messages/groups/{id} [get]
func (c *MessageController) GetMessages(ctx *gin.Context) {
	groupID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(ctx)
	page, size := helpers.ParsePaginationParams(ctx)

	messages, total, err := c.messageService.GetMessages(ctx.Request.Context(), groupID, userID, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	items := make([]dto.MessageResponse, 0, len(messages))
	for i := range messages {
		items = append(items, dto.FromMessage(&messages[i]))
	}
	resp := dto.PaginatedResponse{
		Items:      items,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp, Timestamp: time.Now()})
}

// Send posts a message to a group
// @Summary Send a message
// @Tags messages
// @Accept json
// @Produce json
// @Param id path int true "Group ID"
// @Param request body dto.SendMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=dto.MessageResponse}
// @Failure 403 {object} dto.ErrorResponse "Not a member"
// @Security BearerAuth
// @Router /messages/groups/{id} [post]
func (c *MessageController) Send(ctx *gin.Context) {
	groupID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	userID, _ := middleware.GetUserID(ctx)
	message, err := c.messageService.Send(ctx.Request.Context(), groupID, userID, req.Content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: dto.FromMessage(message), Timestamp: time.Now()})
}

// MarkRead records that the caller has read a group up to now
// @Summary Mark a group as read
// @Tags messages
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Security BearerAuth
// @Router /messages/groups/{id}/read [post]
func (c *MessageController) MarkRead(ctx *gin.Context) {
	groupID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	userID, _ := middleware.GetUserID(ctx)
	if err := c.messageService.MarkRead(ctx.Request.Context(), groupID, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: dto.SuccessResponse{Message: "Group marked as read"}, Timestamp: time.Now()})
}

// CreateDirectGroup finds or creates a one-to-one group with another user
// @Summary Open a direct conversation
// @Tags messages
// @Accept json
// @Produce json
// @Param request body dto.CreateDirectGroupRequest true "Other user"
// @Success 200 {object} dto.APIResponse{data=dto.GroupResponse}
// @Security BearerAuth
// @Router /messages/groups/direct [post]
func (c *MessageController) CreateDirectGroup(ctx *gin.Context) {
	var req dto.CreateDirectGroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	userID, _ := middleware.GetUserID(ctx)
	group, err := c.messageService.CreateDirectGroup(ctx.Request.Context(), userID, req.UserID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: dto.FromGroup(group), Timestamp: time.Now()})
}
