package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tiroapp/tiro-backend/internal/app/models"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
	"github.com/tiroapp/tiro-backend/internal/pkg/dberrors"
)

// InvoiceRepository handles database operations for invoices
type InvoiceRepository struct {
	db *pgxpool.Pool
}

// NewInvoiceRepository creates a new InvoiceRepository
func NewInvoiceRepository(db *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// NextNumberTx draws the next invoice number from the sequence, formatted
// as TIRO-<year>-<six digit counter>
func (r *InvoiceRepository) NextNumberTx(ctx context.Context, tx pgx.Tx) (string, error) {
	var n int64
	if err := tx.QueryRow(ctx, `SELECT nextval('invoice_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("error drawing invoice number: %w", err)
	}
	return fmt.Sprintf("TIRO-%d-%06d", time.Now().Year(), n), nil
}

// CreateTx inserts an invoice inside the payment confirmation transaction.
// The unique index on payment_intent_id guarantees at most one invoice per
// gateway intent.
func (r *InvoiceRepository) CreateTx(ctx context.Context, tx pgx.Tx, inv *models.Invoice) error {
	query := `
		INSERT INTO invoices (number, project_id, payment_intent_id, amount_minor, currency)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, issued_at
	`

	err := tx.QueryRow(ctx, query,
		inv.Number,
		inv.ProjectID,
		inv.PaymentIntentID,
		inv.AmountMinor,
		inv.Currency,
	).Scan(&inv.ID, &inv.IssuedAt)

	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "invoices_payment_intent_id_key") {
			return apperrors.ErrResourceAlreadyExists
		}
		return fmt.Errorf("error creating invoice: %w", err)
	}

	return nil
}

// GetByProjectID retrieves a project's invoice
func (r *InvoiceRepository) GetByProjectID(ctx context.Context, projectID int64) (*models.Invoice, error) {
	return r.getOne(ctx, "project_id = $1", projectID)
}

// GetByPaymentIntentID retrieves the invoice issued for a gateway intent
func (r *InvoiceRepository) GetByPaymentIntentID(ctx context.Context, intentID string) (*models.Invoice, error) {
	return r.getOne(ctx, "payment_intent_id = $1", intentID)
}

func (r *InvoiceRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.Invoice, error) {
	query := `
		SELECT id, number, project_id, payment_intent_id, amount_minor, currency, issued_at
		FROM invoices
		WHERE ` + where

	var inv models.Invoice
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&inv.ID,
		&inv.Number,
		&inv.ProjectID,
		&inv.PaymentIntentID,
		&inv.AmountMinor,
		&inv.Currency,
		&inv.IssuedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrResourceNotFound
		}
		return nil, fmt.Errorf("error retrieving invoice: %w", err)
	}

	return &inv, nil
}
