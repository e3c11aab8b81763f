package dto

// CreateIntentRequest asks for a payment intent for a project
type CreateIntentRequest struct {
	ProjectID int64 `json:"projectId" binding:"required" example:"1"`
}

// CreateIntentResponse carries the gateway handles the client needs
type CreateIntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// ConfirmPaymentRequest confirms a payment by intent id. The server
// re-fetches the intent from the gateway; the client-supplied status is
// never trusted.
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" binding:"required"`
}

// ConfirmPaymentResponse reports the confirmation outcome
type ConfirmPaymentResponse struct {
	Success       bool   `json:"success"`
	PaymentStatus string `json:"payment_status" example:"succeeded"`
	ProjectStatus string `json:"project_status" example:"STEP5"`
}

// TipRequest creates a hosted checkout session for tipping a student
type TipRequest struct {
	ProjectID   int64   `json:"projectId" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0" example:"20"`
	StudentName string  `json:"studentName" binding:"required" example:"Jeanne"`
}

// TipResponse carries the checkout redirect URL
type TipResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

// WebhookEvent is the gateway's event envelope, trimmed to what the
// confirmation path consumes.
type WebhookEvent struct {
	Type string `json:"type" example:"payment_intent.succeeded"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}
