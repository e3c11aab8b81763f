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

// ReviewController handles reviews of completed projects
type ReviewController struct {
	reviewService *services.ReviewService
	logger        zerolog.Logger
}

// NewReviewController creates a new ReviewController
func NewReviewController(reviewService *services.ReviewService, logger zerolog.Logger) *ReviewController {
	return &ReviewController{reviewService: reviewService, logger: logger}
}

// Create leaves a review on a completed project (entrepreneur)
// @Summary Review the selected student
// @Tags reviews
// @Accept json
// @Produce json
// @Param request body dto.CreateReviewRequest true "Review"
// @Success 201 {object} dto.APIResponse{data=dto.ReviewResponse}
// @Failure 409 {object} dto.ErrorResponse "Project not completed or already reviewed"
// @Security BearerAuth
// @Router /reviews [post]
func (c *ReviewController) Create(ctx *gin.Context) {
	var req dto.CreateReviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	userID, _ := middleware.GetUserID(ctx)
	review, err := c.reviewService.Create(ctx.Request.Context(), userID, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: dto.FromReview(review), Timestamp: time.Now()})
}

// ListByProject returns a project's reviews
// @Summary List a project's reviews
// @Tags reviews
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} dto.APIResponse
// @Security BearerAuth
// @Router /projects/{id}/reviews [get]
func (c *ReviewController) ListByProject(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	reviews, err := c.reviewService.ListByProject(ctx.Request.Context(), projectID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	items := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		items = append(items, dto.FromReview(&reviews[i]))
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: items, Timestamp: time.Now()})
}

// StudentRating returns a student's aggregate rating
// @Summary Student rating
// @Tags reviews
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentRatingResponse}
// @Router /students/{id}/rating [get]
func (c *ReviewController) StudentRating(ctx *gin.Context) {
	studentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	rating, err := c.reviewService.GetStudentRating(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: rating, Timestamp: time.Now()})
}
