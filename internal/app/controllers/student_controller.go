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

// StudentController handles the student directory and profile updates
type StudentController struct {
	studentService *services.StudentService
	logger         zerolog.Logger
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService *services.StudentService, logger zerolog.Logger) *StudentController {
	return &StudentController{studentService: studentService, logger: logger}
}

// List returns students, optionally filtered to available ones
// @Summary List students
// @Tags students
// @Produce json
// @Param available query bool false "Only available students"
// @Param specialty query string false "Filter by specialty"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse}
// @Security BearerAuth
// @Router /students [get]
func (c *StudentController) List(ctx *gin.Context) {
	availableOnly, _ := strconv.ParseBool(ctx.Query("available"))
	var specialty *string
	if s := ctx.Query("specialty"); s != "" {
		specialty = &s
	}
	page, size := helpers.ParsePaginationParams(ctx)

	students, total, err := c.studentService.List(ctx.Request.Context(), availableOnly, specialty, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	items := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		items = append(items, dto.FromStudent(&students[i]))
	}
	resp := dto.PaginatedResponse{
		Items:      items,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}
	ctx.JSON(http.StatusOK, dto.APIResponse{Data: resp, Timestamp: time.Now()})
}

// Get returns a student's public profile
// @Summary Get a student
// @Tags students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 404 {object} dto.ErrorResponse
// @Security BearerAuth
// @Router /students/{id} [get]
func (c *StudentController) Get(ctx *gin.Context) {
	studentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	student, err := c.studentService.Get(ctx.Request.Context(), studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: dto.FromStudent(student), Timestamp: time.Now()})
}

// Me returns the calling student's own profile
// @Summary My student profile
// @Tags students
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Security BearerAuth
// @Router /students/me [get]
func (c *StudentController) Me(ctx *gin.Context) {
	userID, _ := middleware.GetUserID(ctx)
	student, err := c.studentService.GetByUserID(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: dto.FromStudent(student), Timestamp: time.Now()})
}

// UpdateMe updates the calling student's own profile
// @Summary Update my student profile
// @Tags students
// @Accept json
// @Produce json
// @Param request body dto.UpdateStudentProfileRequest true "Profile"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Security BearerAuth
// @Router /students/me [put]
func (c *StudentController) UpdateMe(ctx *gin.Context) {
	var req dto.UpdateStudentProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request payload").WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
		return
	}

	userID, _ := middleware.GetUserID(ctx)
	student, err := c.studentService.UpdateOwnProfile(ctx.Request.Context(), userID, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{Data: dto.FromStudent(student), Timestamp: time.Now()})
}
