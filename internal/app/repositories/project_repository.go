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
)

// ProjectFilter narrows project listings
type ProjectFilter struct {
	EntrepreneurID *int64
	StudentID      *int64 // selected student
	Status         *string
}

// ProjectRepository handles database operations for projects
type ProjectRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new project
func (r *ProjectRepository) Create(ctx context.Context, p *models.Project) error {
	query := `
		INSERT INTO projects (title, devis, price, status, entrepreneur_id, pack)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		p.Title,
		p.Devis,
		p.Price,
		p.Status,
		p.EntrepreneurID,
		p.Pack,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("error creating project: %w", err)
	}
	return nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	query := `
		SELECT id, title, devis, price, status, entrepreneur_id, selected_student_id, pack, created_at, updated_at
		FROM projects
		WHERE id = $1
	`

	var p models.Project
	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Title,
		&p.Devis,
		&p.Price,
		&p.Status,
		&p.EntrepreneurID,
		&p.SelectedStudentID,
		&p.Pack,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, fmt.Errorf("error retrieving project: %w", err)
	}

	return &p, nil
}

// List retrieves projects matching the filter with pagination
func (r *ProjectRepository) List(ctx context.Context, filter ProjectFilter, page, pageSize int) ([]models.Project, int64, error) {
	queryBuilder := r.sb.Select(
		"id", "title", "devis", "price", "status", "entrepreneur_id",
		"selected_student_id", "pack", "created_at", "updated_at",
		"COUNT(*) OVER() AS total_count",
	).
		From("projects").
		OrderBy("created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize))

	if filter.EntrepreneurID != nil {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"entrepreneur_id": *filter.EntrepreneurID})
	}
	if filter.StudentID != nil {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"selected_student_id": *filter.StudentID})
	}
	if filter.Status != nil && *filter.Status != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"status": *filter.Status})
	}

	sql, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build project list query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	var total int64
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Devis, &p.Price, &p.Status, &p.EntrepreneurID,
			&p.SelectedStudentID, &p.Pack, &p.CreatedAt, &p.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("error scanning project row: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating project rows: %w", err)
	}

	if projects == nil {
		projects = []models.Project{}
	}
	return projects, total, nil
}

// UpdateQuote sets the quote text and price. The lifecycle service rejects
// this after payment; the repository only writes.
func (r *ProjectRepository) UpdateQuote(ctx context.Context, id int64, devis string, price float64) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE projects SET devis = $2, price = $3, updated_at = NOW() WHERE id = $1
	`, id, devis, price)
	if err != nil {
		return fmt.Errorf("error updating project quote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrProjectNotFound
	}
	return nil
}

// UpdateStatusTx moves a project's status inside an existing transaction.
// The WHERE on the current status makes the write optimistic: a concurrent
// transition that already moved the row leaves nothing to update, and the
// caller gets ErrInvalidTransition instead of a silent double apply.
func (r *ProjectRepository) UpdateStatusTx(ctx context.Context, tx pgx.Tx, projectID int64, from, to string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE projects SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, projectID, from, to)
	if err != nil {
		return fmt.Errorf("error updating project status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrInvalidTransition
	}
	return nil
}

// SetSelectedStudentTx records the entrepreneur's choice inside an existing
// transaction
func (r *ProjectRepository) SetSelectedStudentTx(ctx context.Context, tx pgx.Tx, projectID, studentID int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE projects SET selected_student_id = $2, updated_at = NOW() WHERE id = $1
	`, projectID, studentID)
	if err != nil {
		return fmt.Errorf("error setting selected student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrProjectNotFound
	}
	return nil
}
