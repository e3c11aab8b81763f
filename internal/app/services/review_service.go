package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/tiroapp/tiro-backend/internal/app/lifecycle"
	"github.com/tiroapp/tiro-backend/internal/app/models"
	"github.com/tiroapp/tiro-backend/internal/app/models/dto"
	"github.com/tiroapp/tiro-backend/internal/app/repositories"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
)

// ReviewService handles reviews left by entrepreneurs on completed projects
type ReviewService struct {
	reviewRepo       *repositories.ReviewRepository
	projectRepo      *repositories.ProjectRepository
	entrepreneurRepo *repositories.EntrepreneurRepository
	logger           zerolog.Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	reviewRepo *repositories.ReviewRepository,
	projectRepo *repositories.ProjectRepository,
	entrepreneurRepo *repositories.EntrepreneurRepository,
	logger zerolog.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo:       reviewRepo,
		projectRepo:      projectRepo,
		entrepreneurRepo: entrepreneurRepo,
		logger:           logger,
	}
}

// Create stores a review. The project must be completed, owned by the
// caller, and the student must be the one who did the work.
func (s *ReviewService) Create(ctx context.Context, callerUserID int64, req dto.CreateReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", apperrors.ErrValidationFailed)
	}

	project, err := s.projectRepo.GetByID(ctx, req.ProjectID)
	if err != nil {
		return nil, err
	}

	ent, err := s.entrepreneurRepo.GetByUserID(ctx, callerUserID)
	if err != nil || ent.ID != project.EntrepreneurID {
		return nil, apperrors.ErrPermissionDenied
	}

	status, ok := lifecycle.NormalizeStatus(project.Status)
	if !ok || status != lifecycle.StatusCompleted {
		return nil, fmt.Errorf("%w: reviews open once the project is completed", apperrors.ErrInvalidTransition)
	}
	if project.SelectedStudentID == nil || *project.SelectedStudentID != req.StudentID {
		return nil, apperrors.ErrStudentNotInSet
	}

	review := &models.Review{
		ProjectID:      req.ProjectID,
		StudentID:      req.StudentID,
		EntrepreneurID: ent.ID,
		Rating:         req.Rating,
		Comment:        req.Comment,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("projectID", req.ProjectID).Int64("studentID", req.StudentID).Msg("Review created")
	return review, nil
}

// ListByProject retrieves a project's reviews
func (s *ReviewService) ListByProject(ctx context.Context, projectID int64) ([]models.Review, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.reviewRepo.ListByProject(ctx, projectID)
}

// GetStudentRating aggregates a student's reviews into an average
func (s *ReviewService) GetStudentRating(ctx context.Context, studentID int64) (*dto.StudentRatingResponse, error) {
	reviews, err := s.reviewRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	avg, count, err := s.reviewRepo.GetStudentRating(ctx, studentID)
	if err != nil {
		return nil, err
	}

	resp := &dto.StudentRatingResponse{
		StudentID:     studentID,
		AverageRating: avg,
		ReviewCount:   count,
		Reviews:       make([]dto.ReviewResponse, 0, len(reviews)),
	}
	for i := range reviews {
		resp.Reviews = append(resp.Reviews, dto.FromReview(&reviews[i]))
	}
	return resp, nil
}
