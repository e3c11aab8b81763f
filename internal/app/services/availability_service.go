package services

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/tiroapp/tiro-backend/internal/db"
)

// TxRunner runs a function inside a database transaction. Satisfied by
// *db.PostgresDB; tests substitute a runner that skips the database.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn db.TransactionFn) error
}

// availabilityStudentStore is the slice of StudentRepository the
// availability service needs.
type availabilityStudentStore interface {
	HandleSelectionTx(ctx context.Context, tx pgx.Tx, projectID, studentID int64) error
	ReleaseByProjectTx(ctx context.Context, tx pgx.Tx, projectID int64) (int64, error)
}

// AvailabilityService owns the student availability flag. Selection takes
// the chosen student off the market and frees the rest of the shortlist;
// completion frees the chosen student again. The Tx variants run on a
// caller-owned transaction so lifecycle transitions stay atomic.
type AvailabilityService interface {
	HandleStudentSelection(ctx context.Context, projectID, studentID int64) error
	HandleProjectCompletion(ctx context.Context, projectID int64) error
	HandleStudentSelectionTx(ctx context.Context, tx pgx.Tx, projectID, studentID int64) error
	HandleProjectCompletionTx(ctx context.Context, tx pgx.Tx, projectID int64) error
}

type availabilityServiceImpl struct {
	tx       TxRunner
	students availabilityStudentStore
	logger   zerolog.Logger
}

// NewAvailabilityService creates a new AvailabilityService
func NewAvailabilityService(tx TxRunner, students availabilityStudentStore, logger zerolog.Logger) AvailabilityService {
	return &availabilityServiceImpl{
		tx:       tx,
		students: students,
		logger:   logger,
	}
}

func (s *availabilityServiceImpl) HandleStudentSelection(ctx context.Context, projectID, studentID int64) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.HandleStudentSelectionTx(ctx, tx, projectID, studentID)
	})
}

func (s *availabilityServiceImpl) HandleStudentSelectionTx(ctx context.Context, tx pgx.Tx, projectID, studentID int64) error {
	if err := s.students.HandleSelectionTx(ctx, tx, projectID, studentID); err != nil {
		return err
	}
	s.logger.Info().
		Int64("projectID", projectID).
		Int64("studentID", studentID).
		Msg("Student selected, availability swapped")
	return nil
}

func (s *availabilityServiceImpl) HandleProjectCompletion(ctx context.Context, projectID int64) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.HandleProjectCompletionTx(ctx, tx, projectID)
	})
}

func (s *availabilityServiceImpl) HandleProjectCompletionTx(ctx context.Context, tx pgx.Tx, projectID int64) error {
	released, err := s.students.ReleaseByProjectTx(ctx, tx, projectID)
	if err != nil {
		return err
	}
	if released == 0 {
		// No student was ever selected; nothing to free.
		s.logger.Debug().Int64("projectID", projectID).Msg("Project completed without a selected student")
		return nil
	}
	s.logger.Info().Int64("projectID", projectID).Msg("Selected student released")
	return nil
}
