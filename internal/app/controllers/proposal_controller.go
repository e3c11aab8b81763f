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

// ProposalController handles the admin shortlist and student answers
type ProposalController struct {
	proposalService *services.ProposalService
	logger          zerolog.Logger
}

// NewProposalController creates a new ProposalController
func NewProposalController(proposalService *services.ProposalService, logger zerolog.Logger) *ProposalController {
	return &ProposalController{proposalService: proposalService, logger: logger}
}

// Shortlist adds a student to a project's shortlist (admin)
// @Summary Shortlist a student
// @Tags proposals
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body dto.ProposeStudentRequest true "Student"
// @Success 201 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 409 {object} dto.ErrorResponse "Already shortlisted or shortlist frozen"
// @Security BearerAuth
// @Router /projects/{id}/proposals [post]
func (c *ProposalController) Shortlist(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.ProposeStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	if err := c.proposalService.Shortlist(ctx.Request.Context(), projectID, req.StudentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: dto.SuccessResponse{Message: "Student shortlisted"}, Timestamp: time.Now()})
}

// Unshortlist removes a student from a project's shortlist (admin)
// @Summary Remove a shortlisted student
// @Tags proposals
// @Produce json
// @Param id path int true "Project ID"
// @Param studentId path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Security BearerAuth
// @Router /projects/{id}/proposals/{studentId} [delete]
func (c *ProposalController) Unshortlist(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	studentID, ok := parseIDParam(ctx, "studentId")
	if !ok {
		return
	}

	if err := c.proposalService.Unshortlist(ctx.Request.Context(), projectID, studentID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: dto.SuccessResponse{Message: "Student removed from shortlist"}, Timestamp: time.Now()})
}

// List retrieves a project's proposals
// @Summary List a project's proposals
// @Tags proposals
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} dto.APIResponse
// @Security BearerAuth
// @Router /projects/{id}/proposals [get]
func (c *ProposalController) List(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	proposals, err := c.proposalService.ListByProject(ctx.Request.Context(), projectID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: proposals, Timestamp: time.Now()})
}

// Respond records the calling student's answer
// @Summary Answer a proposal
// @Tags proposals
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body dto.ProposalResponseRequest true "Answer"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Failure 409 {object} dto.ErrorResponse "Proposals closed"
// @Security BearerAuth
// @Router /projects/{id}/proposals/response [post]
func (c *ProposalController) Respond(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.ProposalResponseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Accepted == nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	userID, _ := middleware.GetUserID(ctx)
	if err := c.proposalService.Respond(ctx.Request.Context(), projectID, userID, *req.Accepted); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: dto.SuccessResponse{Message: "Answer recorded"}, Timestamp: time.Now()})
}
