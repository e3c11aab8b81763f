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
	"github.com/tiroapp/tiro-backend/internal/pkg/email"
)

// ProposalService handles the admin shortlist and student answers
type ProposalService struct {
	tx           TxRunner
	proposalRepo *repositories.ProposalRepository
	projectRepo  *repositories.ProjectRepository
	studentRepo  *repositories.StudentRepository
	emailService email.EmailService
	logger       zerolog.Logger
}

// NewProposalService creates a new ProposalService
func NewProposalService(
	tx TxRunner,
	proposalRepo *repositories.ProposalRepository,
	projectRepo *repositories.ProjectRepository,
	studentRepo *repositories.StudentRepository,
	emailService email.EmailService,
	logger zerolog.Logger,
) *ProposalService {
	return &ProposalService{
		tx:           tx,
		proposalRepo: proposalRepo,
		projectRepo:  projectRepo,
		studentRepo:  studentRepo,
		emailService: emailService,
		logger:       logger,
	}
}

// Shortlist adds a student to a project's shortlist. Only makes sense
// before the entrepreneur has a selection in front of them.
func (s *ProposalService) Shortlist(ctx context.Context, projectID, studentID int64) error {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	status, ok := lifecycle.NormalizeStatus(project.Status)
	if !ok {
		return fmt.Errorf("%w: project has unknown status %q", apperrors.ErrValidationFailed, project.Status)
	}
	if status != lifecycle.StatusNew && status != lifecycle.StatusProposalsSent {
		return fmt.Errorf("%w: shortlist is frozen at status %s", apperrors.ErrInvalidTransition, status)
	}

	student, err := s.studentRepo.GetByID(ctx, studentID)
	if err != nil {
		return err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.proposalRepo.AddTx(ctx, tx, projectID, studentID)
	})
	if err != nil {
		return err
	}

	// Notification is best-effort.
	if student.User != nil {
		name := student.User.FirstName + " " + student.User.LastName
		if err := s.emailService.SendProposalNotification(student.User.Email, name, project.Title); err != nil {
			s.logger.Error().Err(err).Int64("studentID", studentID).Msg("Failed to send proposal notification")
		}
	}

	s.logger.Info().Int64("projectID", projectID).Int64("studentID", studentID).Msg("Student shortlisted")
	return nil
}

// Unshortlist removes a student from a project's shortlist
func (s *ProposalService) Unshortlist(ctx context.Context, projectID, studentID int64) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.proposalRepo.RemoveTx(ctx, tx, projectID, studentID)
	})
}

// ListByProject retrieves a project's proposals with student profiles
func (s *ProposalService) ListByProject(ctx context.Context, projectID int64) ([]models.ProposalToStudent, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.proposalRepo.ListByProject(ctx, projectID)
}

// Respond records the calling student's answer to a proposal. Answers are
// only meaningful while proposals are out or the entrepreneur is choosing.
func (s *ProposalService) Respond(ctx context.Context, projectID, callerUserID int64, accepted bool) error {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	status, ok := lifecycle.NormalizeStatus(project.Status)
	if !ok {
		return fmt.Errorf("%w: project has unknown status %q", apperrors.ErrValidationFailed, project.Status)
	}
	if status != lifecycle.StatusProposalsSent && status != lifecycle.StatusSelection {
		return fmt.Errorf("%w: proposals are closed at status %s", apperrors.ErrInvalidTransition, status)
	}

	student, err := s.studentRepo.GetByUserID(ctx, callerUserID)
	if err != nil {
		return err
	}

	if err := s.proposalRepo.Respond(ctx, projectID, student.ID, accepted); err != nil {
		return err
	}

	s.logger.Info().
		Int64("projectID", projectID).
		Int64("studentID", student.ID).
		Bool("accepted", accepted).
		Msg("Proposal answered")
	return nil
}
