package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tiroapp/tiro-backend/internal/app/models/dto"
	"github.com/tiroapp/tiro-backend/internal/app/services"
	"github.com/tiroapp/tiro-backend/internal/middleware"
)

// PaymentController handles payment intents, confirmations, the gateway
// webhook and tips
type PaymentController struct {
	paymentService services.PaymentService
	logger         zerolog.Logger
}

// NewPaymentController creates a new PaymentController
func NewPaymentController(paymentService services.PaymentService, logger zerolog.Logger) *PaymentController {
	return &PaymentController{paymentService: paymentService, logger: logger}
}

// CreateIntent creates a payment intent for a project at the payment step
// @Summary Create a payment intent
// @Tags payments
// @Accept json
// @Produce json
// @Param request body dto.CreateIntentRequest true "Project"
// @Success 200 {object} dto.APIResponse{data=dto.CreateIntentResponse}
// @Failure 409 {object} dto.ErrorResponse "Wrong status or price not set"
// @Security BearerAuth
// @Router /payments/intent [post]
func (c *PaymentController) CreateIntent(ctx *gin.Context) {
	var req dto.CreateIntentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	userID, _ := middleware.GetUserID(ctx)
	resp, err := c.paymentService.CreateIntent(ctx.Request.Context(), req.ProjectID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp, Timestamp: time.Now()})
}

// Confirm confirms a payment by intent id. The intent is re-fetched from
// the gateway; the client cannot assert success.
// @Summary Confirm a payment
// @Tags payments
// @Accept json
// @Produce json
// @Param request body dto.ConfirmPaymentRequest true "Intent"
// @Success 200 {object} dto.APIResponse{data=dto.ConfirmPaymentResponse}
// @Failure 503 {object} dto.ErrorResponse "Gateway unavailable"
// @Security BearerAuth
// @Router /payments/confirm [post]
func (c *PaymentController) Confirm(ctx *gin.Context) {
	var req dto.ConfirmPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	resp, err := c.paymentService.Confirm(ctx.Request.Context(), req.PaymentIntentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp, Timestamp: time.Now()})
}

// Webhook receives gateway events. Unauthenticated; the confirmation path
// trusts only what it re-fetches from the gateway.
// @Summary Payment gateway webhook
// @Tags payments
// @Accept json
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /payments/webhook [post]
func (c *PaymentController) Webhook(ctx *gin.Context) {
	var event dto.WebhookEvent
	if err := ctx.ShouldBindJSON(&event); err != nil {
		c.logger.Warn().Err(err).Msg("Malformed gateway webhook payload")
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid webhook payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	if err := c.paymentService.HandleWebhook(ctx.Request.Context(), event); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: dto.SuccessResponse{Message: "Event processed"}, Timestamp: time.Now()})
}

// Tip creates a hosted checkout session for tipping the student
// @Summary Tip the student
// @Tags payments
// @Accept json
// @Produce json
// @Param request body dto.TipRequest true "Tip"
// @Success 200 {object} dto.APIResponse{data=dto.TipResponse}
// @Security BearerAuth
// @Router /payments/tip [post]
func (c *PaymentController) Tip(ctx *gin.Context) {
	var req dto.TipRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	resp, err := c.paymentService.CreateTip(ctx.Request.Context(), req.ProjectID, req.Amount, req.StudentName)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp, Timestamp: time.Now()})
}
