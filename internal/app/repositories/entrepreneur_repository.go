package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tiroapp/tiro-backend/internal/app/models"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
)

// EntrepreneurRepository handles database operations for entrepreneur profiles
type EntrepreneurRepository struct {
	db *pgxpool.Pool
}

// NewEntrepreneurRepository creates a new EntrepreneurRepository
func NewEntrepreneurRepository(db *pgxpool.Pool) *EntrepreneurRepository {
	return &EntrepreneurRepository{db: db}
}

// CreateTx inserts an entrepreneur profile inside the registration transaction
func (r *EntrepreneurRepository) CreateTx(ctx context.Context, tx pgx.Tx, e *models.Entrepreneur) error {
	query := `
		INSERT INTO entrepreneurs (user_id, company_name, company_role, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	err := tx.QueryRow(ctx, query, e.UserID, e.CompanyName, e.CompanyRole, e.Phone).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("error creating entrepreneur profile: %w", err)
	}
	return nil
}

// GetByID retrieves an entrepreneur by profile ID, user attached
func (r *EntrepreneurRepository) GetByID(ctx context.Context, id int64) (*models.Entrepreneur, error) {
	return r.getOne(ctx, "e.id = $1", id)
}

// GetByUserID retrieves an entrepreneur by the owning user's ID
func (r *EntrepreneurRepository) GetByUserID(ctx context.Context, userID int64) (*models.Entrepreneur, error) {
	return r.getOne(ctx, "e.user_id = $1", userID)
}

func (r *EntrepreneurRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.Entrepreneur, error) {
	query := `
		SELECT e.id, e.user_id, e.company_name, e.company_role, e.phone,
		       u.id, u.email, u.first_name, u.last_name, u.role_type
		FROM entrepreneurs e
		JOIN users u ON u.id = e.user_id
		WHERE ` + where

	var e models.Entrepreneur
	var u models.User
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&e.ID,
		&e.UserID,
		&e.CompanyName,
		&e.CompanyRole,
		&e.Phone,
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.RoleType,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEntrepreneurNotFound
		}
		return nil, fmt.Errorf("error retrieving entrepreneur: %w", err)
	}

	e.User = &u
	return &e, nil
}
