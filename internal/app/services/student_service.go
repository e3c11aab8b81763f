package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/tiroapp/tiro-backend/internal/app/models"
	"github.com/tiroapp/tiro-backend/internal/app/models/dto"
	"github.com/tiroapp/tiro-backend/internal/app/repositories"
)

// StudentService handles student profile reads and updates. Availability is
// owned by the lifecycle and never writable here.
type StudentService struct {
	studentRepo *repositories.StudentRepository
	logger      zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(studentRepo *repositories.StudentRepository, logger zerolog.Logger) *StudentService {
	return &StudentService{studentRepo: studentRepo, logger: logger}
}

// List retrieves students, optionally only available ones, with pagination
func (s *StudentService) List(ctx context.Context, availableOnly bool, specialty *string, page, pageSize int) ([]models.Student, int64, error) {
	return s.studentRepo.List(ctx, availableOnly, specialty, page, pageSize)
}

// Get retrieves a student profile by ID
func (s *StudentService) Get(ctx context.Context, studentID int64) (*models.Student, error) {
	return s.studentRepo.GetByID(ctx, studentID)
}

// GetByUserID retrieves the student profile owned by a user
func (s *StudentService) GetByUserID(ctx context.Context, userID int64) (*models.Student, error) {
	return s.studentRepo.GetByUserID(ctx, userID)
}

// UpdateOwnProfile updates the calling student's profile fields
func (s *StudentService) UpdateOwnProfile(ctx context.Context, callerUserID int64, req dto.UpdateStudentProfileRequest) (*models.Student, error) {
	if err := s.studentRepo.UpdateProfile(ctx, callerUserID, req.School, req.Specialty, req.Skills, req.Bio); err != nil {
		return nil, err
	}
	return s.studentRepo.GetByUserID(ctx, callerUserID)
}
