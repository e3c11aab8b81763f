package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tiroapp/tiro-backend/internal/app/models"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
	"github.com/tiroapp/tiro-backend/internal/pkg/dberrors"
	"github.com/tiroapp/tiro-backend/internal/pkg/logger"
)

// StudentRepository handles database operations for student profiles,
// including the availability writes driven by the project lifecycle.
type StudentRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateTx inserts a student profile inside the registration transaction.
// New students start available.
func (r *StudentRepository) CreateTx(ctx context.Context, tx pgx.Tx, s *models.Student) error {
	query := `
		INSERT INTO students (user_id, school, specialty, skills, bio, available)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, available
	`

	err := tx.QueryRow(ctx, query, s.UserID, s.School, s.Specialty, s.Skills, s.Bio).
		Scan(&s.ID, &s.Available)
	if err != nil {
		return fmt.Errorf("error creating student profile: %w", err)
	}
	return nil
}

// GetByID retrieves a student by profile ID, user attached
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	return r.getOne(ctx, "s.id = $1", id)
}

// GetByUserID retrieves a student by the owning user's ID
func (r *StudentRepository) GetByUserID(ctx context.Context, userID int64) (*models.Student, error) {
	return r.getOne(ctx, "s.user_id = $1", userID)
}

func (r *StudentRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.Student, error) {
	query := `
		SELECT s.id, s.user_id, s.school, s.specialty, s.skills, s.bio, s.available,
		       u.id, u.email, u.first_name, u.last_name, u.role_type
		FROM students s
		JOIN users u ON u.id = s.user_id
		WHERE ` + where

	var s models.Student
	var u models.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&s.ID,
		&s.UserID,
		&s.School,
		&s.Specialty,
		&s.Skills,
		&s.Bio,
		&s.Available,
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.RoleType,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}

	s.User = &u
	return &s, nil
}

// List retrieves students with optional filters and pagination
func (r *StudentRepository) List(ctx context.Context, availableOnly bool, specialty *string, page, pageSize int) ([]models.Student, int64, error) {
	queryBuilder := r.sb.Select(
		"s.id", "s.user_id", "s.school", "s.specialty", "s.skills", "s.bio", "s.available",
		"u.first_name", "u.last_name",
		"COUNT(*) OVER() AS total_count",
	).
		From("students s").
		Join("users u ON u.id = s.user_id").
		Where(squirrel.Eq{"u.is_active": true}).
		OrderBy("s.id").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize))

	if availableOnly {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"s.available": true})
	}
	if specialty != nil && *specialty != "" {
		queryBuilder = queryBuilder.Where("s.specialty ILIKE ?", "%"+*specialty+"%")
	}

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build student list query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing students: %w", err)
	}
	defer rows.Close()

	var students []models.Student
	var total int64
	for rows.Next() {
		var s models.Student
		var u models.User
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.School, &s.Specialty, &s.Skills, &s.Bio, &s.Available,
			&u.FirstName, &u.LastName, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("error scanning student row: %w", err)
		}
		s.User = &u
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating student rows: %w", err)
	}

	if students == nil {
		students = []models.Student{}
	}
	return students, total, nil
}

// UpdateProfile updates the profile fields a student owns
func (r *StudentRepository) UpdateProfile(ctx context.Context, userID int64, school, specialty string, skills []string, bio string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE students SET school = $2, specialty = $3, skills = $4, bio = $5
		WHERE user_id = $1
	`, userID, school, specialty, skills, bio)
	if err != nil {
		return fmt.Errorf("error updating student profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// SetAvailabilityTx flips a single student's availability flag inside an
// existing transaction
func (r *StudentRepository) SetAvailabilityTx(ctx context.Context, tx pgx.Tx, studentID int64, available bool) error {
	tag, err := tx.Exec(ctx, `UPDATE students SET available = $2 WHERE id = $1`, studentID, available)
	if err != nil {
		return fmt.Errorf("error updating student availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// HandleSelectionTx applies the availability swap for a student selection:
// every shortlisted student for the project becomes available again, the
// selected one becomes unavailable, and the project records the selection.
// The database function is preferred so the swap stays a single statement;
// when it is absent the same writes run individually on the tx.
func (r *StudentRepository) HandleSelectionTx(ctx context.Context, tx pgx.Tx, projectID, studentID int64) error {
	_, err := tx.Exec(ctx, `SELECT handle_student_selection($1, $2)`, projectID, studentID)
	if err == nil {
		return nil
	}
	if !dberrors.IsUndefinedFunction(err) {
		return fmt.Errorf("error in student selection function: %w", err)
	}

	logger.Warn().Int64("projectID", projectID).
		Msg("handle_student_selection function missing, applying selection writes directly")

	_, err = tx.Exec(ctx, `
		UPDATE students SET available = TRUE
		WHERE id IN (SELECT student_id FROM proposed_students WHERE project_id = $1)
	`, projectID)
	if err != nil {
		return fmt.Errorf("error releasing shortlisted students: %w", err)
	}

	if err := r.SetAvailabilityTx(ctx, tx, studentID, false); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE projects SET selected_student_id = $2, updated_at = NOW() WHERE id = $1
	`, projectID, studentID)
	if err != nil {
		return fmt.Errorf("error recording selected student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrProjectNotFound
	}
	return nil
}

// ReleaseByProjectTx sets the project's selected student back to available.
// Returns the number of students released (0 when no student was selected).
func (r *StudentRepository) ReleaseByProjectTx(ctx context.Context, tx pgx.Tx, projectID int64) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE students SET available = TRUE
		WHERE id = (SELECT selected_student_id FROM projects WHERE id = $1)
	`, projectID)
	if err != nil {
		return 0, fmt.Errorf("error releasing selected student: %w", err)
	}
	return tag.RowsAffected(), nil
}
