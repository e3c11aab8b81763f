package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tiroapp/tiro-backend/internal/app/models"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
	"github.com/tiroapp/tiro-backend/internal/pkg/dberrors"
)

// TransitionRepository records applied lifecycle transitions. The unique
// idempotency key is the ledger that keeps a transition from running twice.
type TransitionRepository struct {
	db *pgxpool.Pool
}

// NewTransitionRepository creates a new TransitionRepository
func NewTransitionRepository(db *pgxpool.Pool) *TransitionRepository {
	return &TransitionRepository{db: db}
}

// InsertTx records a transition inside the transaction that applies it.
// A duplicate idempotency key returns ErrResourceAlreadyExists; the caller
// must treat that as "already applied" and roll back, because the conflict
// aborts the surrounding transaction.
func (r *TransitionRepository) InsertTx(ctx context.Context, tx pgx.Tx, t *models.ProjectTransition) error {
	query := `
		INSERT INTO project_transitions (project_id, from_status, to_status, event, idempotency_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, applied_at
	`

	err := tx.QueryRow(ctx, query,
		t.ProjectID,
		t.FromStatus,
		t.ToStatus,
		t.Event,
		t.IdempotencyKey,
	).Scan(&t.ID, &t.AppliedAt)

	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "project_transitions_idempotency_key_key") {
			return apperrors.ErrResourceAlreadyExists
		}
		return fmt.Errorf("error recording transition: %w", err)
	}

	return nil
}

// Exists reports whether a transition with the given idempotency key has
// already been applied
func (r *TransitionRepository) Exists(ctx context.Context, idempotencyKey string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM project_transitions WHERE idempotency_key = $1)`,
		idempotencyKey,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking transition existence: %w", err)
	}
	return exists, nil
}

// ListByProject retrieves a project's transition history, oldest first
func (r *TransitionRepository) ListByProject(ctx context.Context, projectID int64) ([]models.ProjectTransition, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, project_id, from_status, to_status, event, idempotency_key, applied_at
		FROM project_transitions
		WHERE project_id = $1
		ORDER BY applied_at
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("error listing transitions: %w", err)
	}
	defer rows.Close()

	var transitions []models.ProjectTransition
	for rows.Next() {
		var t models.ProjectTransition
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.FromStatus, &t.ToStatus, &t.Event, &t.IdempotencyKey, &t.AppliedAt); err != nil {
			return nil, fmt.Errorf("error scanning transition row: %w", err)
		}
		transitions = append(transitions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transition rows: %w", err)
	}

	if transitions == nil {
		transitions = []models.ProjectTransition{}
	}
	return transitions, nil
}
