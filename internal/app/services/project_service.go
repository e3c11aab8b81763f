package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/tiroapp/tiro-backend/internal/app/lifecycle"
	"github.com/tiroapp/tiro-backend/internal/app/models"
	"github.com/tiroapp/tiro-backend/internal/app/repositories"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
)

// ProjectService handles project CRUD around the lifecycle. Transitions
// themselves belong to LifecycleService.
type ProjectService struct {
	tx               TxRunner
	projectRepo      *repositories.ProjectRepository
	entrepreneurRepo *repositories.EntrepreneurRepository
	studentRepo      *repositories.StudentRepository
	messageRepo      *repositories.MessageRepository
	transitionRepo   *repositories.TransitionRepository
	// systemUserID joins every project group so admins can follow along.
	systemUserID int64
	logger       zerolog.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	tx TxRunner,
	projectRepo *repositories.ProjectRepository,
	entrepreneurRepo *repositories.EntrepreneurRepository,
	studentRepo *repositories.StudentRepository,
	messageRepo *repositories.MessageRepository,
	transitionRepo *repositories.TransitionRepository,
	systemUserID int64,
	logger zerolog.Logger,
) *ProjectService {
	return &ProjectService{
		tx:               tx,
		projectRepo:      projectRepo,
		entrepreneurRepo: entrepreneurRepo,
		studentRepo:      studentRepo,
		messageRepo:      messageRepo,
		transitionRepo:   transitionRepo,
		systemUserID:     systemUserID,
		logger:           logger,
	}
}

// Create opens a new project for the calling entrepreneur, along with its
// message group
func (s *ProjectService) Create(ctx context.Context, callerUserID int64, title, pack string) (*models.Project, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidationFailed)
	}

	ent, err := s.entrepreneurRepo.GetByUserID(ctx, callerUserID)
	if err != nil {
		return nil, err
	}

	project := &models.Project{
		Title:          title,
		Status:         string(lifecycle.StatusNew),
		EntrepreneurID: ent.ID,
		Pack:           pack,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	// The group failing should not lose the project; lifecycle commands
	// tolerate a missing group.
	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		group := &models.MessageGroup{ProjectID: &project.ID, Name: title}
		return s.messageRepo.CreateGroupTx(ctx, tx, group, []int64{ent.UserID, s.systemUserID})
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("projectID", project.ID).Msg("Failed to create project message group")
	}

	s.logger.Info().Int64("projectID", project.ID).Int64("entrepreneurID", ent.ID).Msg("Project created")
	return project, nil
}

// Get retrieves a project, enforcing ownership for non-admin callers
func (s *ProjectService) Get(ctx context.Context, projectID int64, caller *models.User) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, project, caller); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) authorize(ctx context.Context, project *models.Project, caller *models.User) error {
	switch caller.RoleType {
	case models.RoleAdmin:
		return nil
	case models.RoleEntrepreneur:
		ent, err := s.entrepreneurRepo.GetByUserID(ctx, caller.ID)
		if err != nil || ent.ID != project.EntrepreneurID {
			return apperrors.ErrPermissionDenied
		}
		return nil
	case models.RoleStudent:
		student, err := s.studentRepo.GetByUserID(ctx, caller.ID)
		if err != nil {
			return apperrors.ErrPermissionDenied
		}
		if project.SelectedStudentID == nil || *project.SelectedStudentID != student.ID {
			return apperrors.ErrPermissionDenied
		}
		return nil
	}
	return apperrors.ErrPermissionDenied
}

// List retrieves projects scoped to the caller's role: admins see all,
// entrepreneurs their own, students the projects they were selected for
func (s *ProjectService) List(ctx context.Context, caller *models.User, status *string, page, pageSize int) ([]models.Project, int64, error) {
	filter := repositories.ProjectFilter{Status: status}

	switch caller.RoleType {
	case models.RoleAdmin:
		// No scoping.
	case models.RoleEntrepreneur:
		ent, err := s.entrepreneurRepo.GetByUserID(ctx, caller.ID)
		if err != nil {
			return nil, 0, err
		}
		filter.EntrepreneurID = &ent.ID
	case models.RoleStudent:
		student, err := s.studentRepo.GetByUserID(ctx, caller.ID)
		if err != nil {
			return nil, 0, err
		}
		filter.StudentID = &student.ID
	default:
		return nil, 0, apperrors.ErrPermissionDenied
	}

	return s.projectRepo.List(ctx, filter, page, pageSize)
}

// UpdateQuote sets the quote text and price. Allowed only before the
// payment step; a paid project's price is frozen.
func (s *ProjectService) UpdateQuote(ctx context.Context, projectID int64, devis string, price float64) (*models.Project, error) {
	if price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", apperrors.ErrValidationFailed)
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	status, ok := lifecycle.NormalizeStatus(project.Status)
	if !ok {
		return nil, fmt.Errorf("%w: project has unknown status %q", apperrors.ErrValidationFailed, project.Status)
	}
	switch status {
	case lifecycle.StatusNew, lifecycle.StatusProposalsSent, lifecycle.StatusSelection:
		// Quote still editable.
	default:
		return nil, fmt.Errorf("%w: quote can no longer change at status %s", apperrors.ErrInvalidTransition, status)
	}

	if err := s.projectRepo.UpdateQuote(ctx, projectID, devis, price); err != nil {
		return nil, err
	}

	project.Devis = devis
	project.Price = price
	return project, nil
}

// GetTransitions retrieves a project's lifecycle history
func (s *ProjectService) GetTransitions(ctx context.Context, projectID int64) ([]models.ProjectTransition, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.transitionRepo.ListByProject(ctx, projectID)
}
