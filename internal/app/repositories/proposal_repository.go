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

// ProposalRepository handles the admin shortlist (proposed_students) and
// the students' own answers (proposals_to_students)
type ProposalRepository struct {
	db *pgxpool.Pool
}

// NewProposalRepository creates a new ProposalRepository
func NewProposalRepository(db *pgxpool.Pool) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// AddTx shortlists a student for a project. Both the shortlist row and the
// pending answer row are written, so the caller owns the transaction.
func (r *ProposalRepository) AddTx(ctx context.Context, tx pgx.Tx, projectID, studentID int64) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO proposed_students (project_id, student_id) VALUES ($1, $2)
	`, projectID, studentID)
	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrResourceAlreadyExists
		}
		return fmt.Errorf("error shortlisting student: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO proposals_to_students (project_id, student_id) VALUES ($1, $2)
	`, projectID, studentID)
	if err != nil {
		return fmt.Errorf("error creating proposal to student: %w", err)
	}
	return nil
}

// RemoveTx drops a student from a project's shortlist along with the
// pending answer row
func (r *ProposalRepository) RemoveTx(ctx context.Context, tx pgx.Tx, projectID, studentID int64) error {
	tag, err := tx.Exec(ctx, `
		DELETE FROM proposed_students WHERE project_id = $1 AND student_id = $2
	`, projectID, studentID)
	if err != nil {
		return fmt.Errorf("error removing shortlisted student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrResourceNotFound
	}

	_, err = tx.Exec(ctx, `
		DELETE FROM proposals_to_students WHERE project_id = $1 AND student_id = $2
	`, projectID, studentID)
	if err != nil {
		return fmt.Errorf("error removing proposal to student: %w", err)
	}
	return nil
}

// ListByProject retrieves a project's proposals with each student attached
func (r *ProposalRepository) ListByProject(ctx context.Context, projectID int64) ([]models.ProposalToStudent, error) {
	query := `
		SELECT p.project_id, p.student_id, p.accepted, p.responded_at, p.created_at,
		       s.id, s.user_id, s.school, s.specialty, s.skills, s.available,
		       u.first_name, u.last_name
		FROM proposals_to_students p
		JOIN students s ON s.id = p.student_id
		JOIN users u ON u.id = s.user_id
		WHERE p.project_id = $1
		ORDER BY p.created_at
	`

	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("error listing proposals: %w", err)
	}
	defer rows.Close()

	var proposals []models.ProposalToStudent
	for rows.Next() {
		var p models.ProposalToStudent
		var s models.Student
		var u models.User
		if err := rows.Scan(
			&p.ProjectID, &p.StudentID, &p.Accepted, &p.RespondedAt, &p.CreatedAt,
			&s.ID, &s.UserID, &s.School, &s.Specialty, &s.Skills, &s.Available,
			&u.FirstName, &u.LastName,
		); err != nil {
			return nil, fmt.Errorf("error scanning proposal row: %w", err)
		}
		s.User = &u
		p.Student = &s
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating proposal rows: %w", err)
	}

	if proposals == nil {
		proposals = []models.ProposalToStudent{}
	}
	return proposals, nil
}

// CountByProject counts a project's shortlisted students
func (r *ProposalRepository) CountByProject(ctx context.Context, projectID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM proposed_students WHERE project_id = $1`, projectID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting proposals: %w", err)
	}
	return count, nil
}

// CountAccepted counts the students who accepted a project's proposal
func (r *ProposalRepository) CountAccepted(ctx context.Context, projectID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM proposals_to_students WHERE project_id = $1 AND accepted = TRUE`,
		projectID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting accepted proposals: %w", err)
	}
	return count, nil
}

// IsAccepted reports whether the given student accepted the project's proposal
func (r *ProposalRepository) IsAccepted(ctx context.Context, projectID, studentID int64) (bool, error) {
	var accepted bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM proposals_to_students
			WHERE project_id = $1 AND student_id = $2 AND accepted = TRUE
		)
	`, projectID, studentID).Scan(&accepted)
	if err != nil {
		return false, fmt.Errorf("error checking proposal acceptance: %w", err)
	}
	return accepted, nil
}

// Respond records a student's answer to a proposal. Answers can be revised
// until the entrepreneur selects someone.
func (r *ProposalRepository) Respond(ctx context.Context, projectID, studentID int64, accepted bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE proposals_to_students SET accepted = $3, responded_at = NOW()
		WHERE project_id = $1 AND student_id = $2
	`, projectID, studentID, accepted)
	if err != nil {
		return fmt.Errorf("error recording proposal answer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrResourceNotFound
	}
	return nil
}
