package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tiroapp/tiro-backend/internal/app/models"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
	"github.com/tiroapp/tiro-backend/internal/pkg/dberrors"
)

// ReviewRepository handles database operations for reviews
type ReviewRepository struct {
	db *pgxpool.Pool
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(db *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review. The unique index on the (project, student,
// entrepreneur) triple turns a concurrent double submit into a conflict
// here instead of a second row.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (project_id, student_id, entrepreneur_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		review.ProjectID,
		review.StudentID,
		review.EntrepreneurID,
		review.Rating,
		review.Comment,
	).Scan(&review.ID, &review.CreatedAt)

	if err != nil {
		if dberrors.IsUniqueViolation(err) {
			return apperrors.ErrReviewAlreadyExists
		}
		return fmt.Errorf("error creating review: %w", err)
	}

	return nil
}

// ListByProject retrieves a project's reviews
func (r *ReviewRepository) ListByProject(ctx context.Context, projectID int64) ([]models.Review, error) {
	return r.list(ctx, "project_id = $1", projectID)
}

// ListByStudent retrieves a student's reviews
func (r *ReviewRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.Review, error) {
	return r.list(ctx, "student_id = $1", studentID)
}

func (r *ReviewRepository) list(ctx context.Context, where string, arg interface{}) ([]models.Review, error) {
	query := `
		SELECT id, project_id, student_id, entrepreneur_id, rating, comment, created_at
		FROM reviews
		WHERE ` + where + `
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("error listing reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.ProjectID, &rv.StudentID, &rv.EntrepreneurID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning review row: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review rows: %w", err)
	}

	if reviews == nil {
		reviews = []models.Review{}
	}
	return reviews, nil
}

// GetStudentRating returns a student's average rating and review count
func (r *ReviewRepository) GetStudentRating(ctx context.Context, studentID int64) (float64, int64, error) {
	var avg float64
	var count int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE student_id = $1
	`, studentID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("error computing student rating: %w", err)
	}
	return avg, count, nil
}
