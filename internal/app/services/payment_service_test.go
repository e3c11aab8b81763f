package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/tiroapp/tiro-backend/internal/app/lifecycle"
	"github.com/tiroapp/tiro-backend/internal/app/models"
	"github.com/tiroapp/tiro-backend/internal/app/models/dto"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
	"github.com/tiroapp/tiro-backend/internal/pkg/gateway"
)

func webhookEvent(eventType, intentID string) dto.WebhookEvent {
	var e dto.WebhookEvent
	e.Type = eventType
	e.Data.Object.ID = intentID
	return e
}

type fakeGateway struct {
	intents       map[string]*gateway.Intent
	createdAmount int64
	checkoutName  string
}

func (f *fakeGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*gateway.Intent, error) {
	f.createdAmount = amountMinor
	intent := &gateway.Intent{
		ID:           "pi_new",
		ClientSecret: "pi_new_secret",
		Amount:       amountMinor,
		Currency:     currency,
		Status:       "requires_payment_method",
		Metadata:     metadata,
	}
	f.intents[intent.ID] = intent
	return intent, nil
}

func (f *fakeGateway) GetIntent(ctx context.Context, intentID string) (*gateway.Intent, error) {
	intent, ok := f.intents[intentID]
	if !ok {
		return nil, apperrors.ErrIntentNotFound
	}
	return intent, nil
}

func (f *fakeGateway) CreateCheckoutSession(ctx context.Context, amountMinor int64, currency, productName, successURL, cancelURL string) (*gateway.CheckoutSession, error) {
	f.checkoutName = productName
	return &gateway.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"}, nil
}

func newPaymentEnv(t *testing.T, projectStatus lifecycle.Status) (*testEnv, *fakeGateway, PaymentService) {
	t.Helper()
	env := newTestEnv(t, projectStatus)

	gw := &fakeGateway{intents: map[string]*gateway.Intent{}}
	entrepreneur := &models.Entrepreneur{ID: 1, UserID: 10, User: &models.User{ID: 10, Email: "ent@tiro.app"}}
	entrepreneurs := &fakeEntrepreneurStore{
		byID:     map[int64]*models.Entrepreneur{1: entrepreneur},
		byUserID: map[int64]*models.Entrepreneur{10: entrepreneur},
	}

	svc := NewPaymentService(env.projects, entrepreneurs, gw, env.service, PaymentConfig{
		Currency:   "eur",
		SuccessURL: "https://tiro.app/merci",
		CancelURL:  "https://tiro.app/annule",
	}, zerolog.Nop())

	return env, gw, svc
}

func TestAmountToMinor(t *testing.T) {
	cases := []struct {
		amount float64
		want   int64
	}{
		{500.00, 50000},
		{19.99, 1999},
		{0.10, 10},
		{1234.56, 123456},
	}
	for _, c := range cases {
		if got := AmountToMinor(c.amount); got != c.want {
			t.Errorf("AmountToMinor(%v) = %d, want %d", c.amount, got, c.want)
		}
	}
}

func TestCreateIntentConvertsToMinorUnits(t *testing.T) {
	_, gw, svc := newPaymentEnv(t, lifecycle.StatusPayment)

	resp, err := svc.CreateIntent(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if gw.createdAmount != 50000 {
		t.Errorf("gateway amount = %d, want 50000 for a 500.00 price", gw.createdAmount)
	}
	if resp.ClientSecret == "" || resp.PaymentIntentID == "" {
		t.Errorf("response = %+v, want secret and intent id", resp)
	}
}

func TestCreateIntentRequiresPaymentStatus(t *testing.T) {
	_, _, svc := newPaymentEnv(t, lifecycle.StatusSelection)

	_, err := svc.CreateIntent(context.Background(), 1, 10)
	if !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestCreateIntentRequiresPrice(t *testing.T) {
	env, _, svc := newPaymentEnv(t, lifecycle.StatusPayment)
	env.projects.projects[1].Price = 0

	_, err := svc.CreateIntent(context.Background(), 1, 10)
	if !errors.Is(err, apperrors.ErrPriceNotSet) {
		t.Fatalf("err = %v, want ErrPriceNotSet", err)
	}
}

func TestCreateIntentRequiresOwnership(t *testing.T) {
	_, _, svc := newPaymentEnv(t, lifecycle.StatusPayment)

	_, err := svc.CreateIntent(context.Background(), 1, 777)
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestConfirmNonSucceededLeavesState(t *testing.T) {
	env, gw, svc := newPaymentEnv(t, lifecycle.StatusPayment)
	gw.intents["pi_pending"] = &gateway.Intent{
		ID:       "pi_pending",
		Amount:   50000,
		Currency: "eur",
		Status:   "processing",
		Metadata: map[string]string{"projectId": "1"},
	}

	resp, err := svc.Confirm(context.Background(), "pi_pending")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if resp.Success {
		t.Error("confirmation of a pending intent must not report success")
	}
	if resp.PaymentStatus != "processing" {
		t.Errorf("payment status = %s, want processing", resp.PaymentStatus)
	}
	if env.projects.projects[1].Status != string(lifecycle.StatusPayment) {
		t.Error("project must stay at STEP4 on a pending intent")
	}
	if len(env.invoices.byIntent) != 0 {
		t.Error("no invoice for a pending intent")
	}
}

func TestConfirmSucceededMovesProject(t *testing.T) {
	env, gw, svc := newPaymentEnv(t, lifecycle.StatusPayment)
	gw.intents["pi_ok"] = &gateway.Intent{
		ID:       "pi_ok",
		Amount:   50000,
		Currency: "eur",
		Status:   gateway.IntentStatusSucceeded,
		Metadata: map[string]string{"projectId": "1"},
	}

	resp, err := svc.Confirm(context.Background(), "pi_ok")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if !resp.Success {
		t.Error("succeeded intent should confirm")
	}
	if resp.ProjectStatus != string(lifecycle.StatusActive) {
		t.Errorf("project status = %s, want STEP5", resp.ProjectStatus)
	}

	// Replay through the webhook path: still exactly one invoice.
	event := webhookEvent("payment_intent.succeeded", "pi_ok")
	if err := svc.HandleWebhook(context.Background(), event); err != nil {
		t.Fatalf("HandleWebhook replay: %v", err)
	}
	if len(env.invoices.byIntent) != 1 {
		t.Errorf("got %d invoices, want exactly 1", len(env.invoices.byIntent))
	}
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	_, _, svc := newPaymentEnv(t, lifecycle.StatusPayment)

	if err := svc.HandleWebhook(context.Background(), webhookEvent("charge.refunded", "pi_x")); err != nil {
		t.Fatalf("HandleWebhook should ignore unrelated events: %v", err)
	}
}

func TestCreateTip(t *testing.T) {
	_, gw, svc := newPaymentEnv(t, lifecycle.StatusCompleted)

	resp, err := svc.CreateTip(context.Background(), 1, 20, "Jeanne")
	if err != nil {
		t.Fatalf("CreateTip: %v", err)
	}
	if resp.CheckoutURL == "" {
		t.Error("tip response should carry a checkout URL")
	}
	if gw.checkoutName != "Pourboire pour Jeanne" {
		t.Errorf("checkout product = %q", gw.checkoutName)
	}
}
