package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/tiroapp/tiro-backend/internal/app/models/dto"
	"github.com/tiroapp/tiro-backend/internal/app/services"
	"github.com/tiroapp/tiro-backend/internal/middleware"
	"github.com/tiroapp/tiro-backend/internal/pkg/helpers"
)

// ProjectController handles project CRUD and lifecycle transitions
type ProjectController struct {
	projectService   *services.ProjectService
	lifecycleService services.LifecycleService
	auth             *middleware.AuthMiddleware
	logger           zerolog.Logger
}

// NewProjectController creates a new ProjectController
func NewProjectController(
	projectService *services.ProjectService,
	lifecycleService services.LifecycleService,
	auth *middleware.AuthMiddleware,
	logger zerolog.Logger,
) *ProjectController {
	return &ProjectController{
		projectService:   projectService,
		lifecycleService: lifecycleService,
		auth:             auth,
		logger:           logger,
	}
}

func parseIDParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid id parameter").WithField(name)
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return 0, false
	}
	return id, true
}

// Create opens a new project
// @Summary Create a project
// @Tags projects
// @Accept json
// @Produce json
// @Param request body dto.CreateProjectRequest true "Project"
// @Success 201 {object} dto.APIResponse{data=dto.ProjectResponse}
// @Security BearerAuth
// @Router /projects [post]
func (c *ProjectController) Create(ctx *gin.Context) {
	var req dto.CreateProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	userID, _ := middleware.GetUserID(ctx)
	project, err := c.projectService.Create(ctx.Request.Context(), userID, req.Title, req.Pack)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{Data: dto.FromProject(project), Timestamp: time.Now()})
}

// Get retrieves a project
// @Summary Get a project
// @Tags projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} dto.APIResponse{data=dto.ProjectResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /projects/{id} [get]
func (c *ProjectController) Get(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	caller, err := c.auth.GetCurrentUser(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	project, err := c.projectService.Get(ctx.Request.Context(), projectID, caller)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: dto.FromProject(project), Timestamp: time.Now()})
}

// List retrieves projects scoped to the caller
// @Summary List projects
// @Tags projects
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse}
// @Security BearerAuth
// @Router /projects [get]
func (c *ProjectController) List(ctx *gin.Context) {
	caller, err := c.auth.GetCurrentUser(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	var status *string
	if s := ctx.Query("status"); s != "" {
		status = &s
	}
	page, size := helpers.ParsePaginationParams(ctx)

	projects, total, err := c.projectService.List(ctx.Request.Context(), caller, status, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	items := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		items = append(items, dto.FromProject(&projects[i]))
	}

	resp := dto.PaginatedResponse{
		Items:      items,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp, Timestamp: time.Now()})
}

// UpdateQuote sets the quote and price (admin)
// @Summary Update a project's quote
// @Tags projects
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body dto.UpdateQuoteRequest true "Quote"
// @Success 200 {object} dto.APIResponse{data=dto.ProjectResponse}
// @Failure 409 {object} dto.ErrorResponse "Quote frozen after payment"
// @Security BearerAuth
// @Router /projects/{id}/quote [put]
func (c *ProjectController) UpdateQuote(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateQuoteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	project, err := c.projectService.UpdateQuote(ctx.Request.Context(), projectID, req.Devis, req.Price)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: dto.FromProject(project), Timestamp: time.Now()})
}

// GetTransitions returns a project's lifecycle history (admin)
// @Summary Project transition history
// @Tags projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} dto.APIResponse
// @Security BearerAuth
// @Router /projects/{id}/transitions [get]
func (c *ProjectController) GetTransitions(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	transitions, err := c.projectService.GetTransitions(ctx.Request.Context(), projectID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: transitions, Timestamp: time.Now()})
}

func transitionResponse(res *services.TransitionResult) dto.TransitionResponse {
	return dto.TransitionResponse{
		ProjectID:      res.ProjectID,
		Status:         string(res.Status),
		Event:          string(res.Event),
		AlreadyApplied: res.AlreadyApplied,
	}
}

// SendProposals moves a project to the proposals-sent step (admin)
// @Summary Send proposals to the shortlisted students
// @Tags lifecycle
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} dto.APIResponse{data=dto.TransitionResponse}
// @Failure 409 {object} dto.ErrorResponse "Guard failed or wrong status"
// @Security BearerAuth
// @Router /projects/{id}/send-proposals [post]
func (c *ProjectController) SendProposals(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	res, err := c.lifecycleService.SendProposals(ctx.Request.Context(), projectID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: transitionResponse(res), Timestamp: time.Now()})
}

// ProposeToEntrepreneur shows the accepted set to the entrepreneur (admin)
// @Summary Present accepted students to the entrepreneur
// @Tags lifecycle
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} dto.APIResponse{data=dto.TransitionResponse}
// @Failure 409 {object} dto.ErrorResponse "Guard failed or wrong status"
// @Security BearerAuth
// @Router /projects/{id}/propose [post]
func (c *ProjectController) ProposeToEntrepreneur(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	res, err := c.lifecycleService.ProposeToEntrepreneur(ctx.Request.Context(), projectID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: transitionResponse(res), Timestamp: time.Now()})
}

// SelectStudent records the entrepreneur's choice
// @Summary Select a student for the project
// @Tags lifecycle
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body dto.SelectStudentRequest true "Selection"
// @Success 200 {object} dto.APIResponse{data=dto.TransitionResponse}
// @Failure 409 {object} dto.ErrorResponse "Student not in the accepted set"
// @Security BearerAuth
// @Router /projects/{id}/select-student [post]
func (c *ProjectController) SelectStudent(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.SelectStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	userID, _ := middleware.GetUserID(ctx)
	res, err := c.lifecycleService.SelectStudent(ctx.Request.Context(), projectID, userID, req.StudentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: transitionResponse(res), Timestamp: time.Now()})
}

// Complete closes an active project (admin)
// @Summary Complete a project
// @Tags lifecycle
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} dto.APIResponse{data=dto.TransitionResponse}
// @Failure 409 {object} dto.ErrorResponse "Wrong status"
// @Security BearerAuth
// @Router /projects/{id}/complete [post]
func (c *ProjectController) Complete(ctx *gin.Context) {
	projectID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	res, err := c.lifecycleService.Complete(ctx.Request.Context(), projectID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: transitionResponse(res), Timestamp: time.Now()})
}
