package models

import "time"

// Invoice defines the invoice model based on the 'invoices' table.
// AmountMinor is in minor currency units (cents). PaymentIntentID carries a
// unique index so one gateway intent can only ever produce one invoice.
type Invoice struct {
	ID              int64     `json:"id" db:"id" example:"1"`
	Number          string    `json:"number" db:"number" example:"TIRO-2026-000042"`
	ProjectID       int64     `json:"projectId" db:"project_id"`
	PaymentIntentID string    `json:"paymentIntentId" db:"payment_intent_id"`
	AmountMinor     int64     `json:"amountMinor" db:"amount_minor" example:"50000"`
	Currency        string    `json:"currency" db:"currency" example:"eur"`
	IssuedAt        time.Time `json:"issuedAt" db:"issued_at"`
}
