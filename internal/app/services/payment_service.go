package services

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/tiroapp/tiro-backend/internal/app/lifecycle"
	"github.com/tiroapp/tiro-backend/internal/app/models/dto"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
	"github.com/tiroapp/tiro-backend/internal/pkg/gateway"
	"github.com/tiroapp/tiro-backend/internal/pkg/metrics"
)

// PaymentConfig carries the gateway settings the payment service needs
// beyond the client itself.
type PaymentConfig struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

// PaymentService drives the money side of a project: intent creation at the
// payment step, confirmation (from the client or the gateway webhook), and
// tips after completion. Confirmation never trusts the caller; the intent is
// re-fetched from the gateway and only a succeeded intent moves the project.
type PaymentService interface {
	CreateIntent(ctx context.Context, projectID, callerUserID int64) (*dto.CreateIntentResponse, error)
	Confirm(ctx context.Context, paymentIntentID string) (*dto.ConfirmPaymentResponse, error)
	HandleWebhook(ctx context.Context, event dto.WebhookEvent) error
	CreateTip(ctx context.Context, projectID int64, amount float64, studentName string) (*dto.TipResponse, error)
}

type paymentServiceImpl struct {
	projects      lifecycleProjectStore
	entrepreneurs lifecycleEntrepreneurStore
	gateway       gateway.Client
	lifecycle     LifecycleService
	config        PaymentConfig
	logger        zerolog.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	projects lifecycleProjectStore,
	entrepreneurs lifecycleEntrepreneurStore,
	gatewayClient gateway.Client,
	lifecycleService LifecycleService,
	config PaymentConfig,
	logger zerolog.Logger,
) PaymentService {
	return &paymentServiceImpl{
		projects:      projects,
		entrepreneurs: entrepreneurs,
		gateway:       gatewayClient,
		lifecycle:     lifecycleService,
		config:        config,
		logger:        logger,
	}
}

// AmountToMinor converts a price in major units to the gateway's minor
// units (500.00 EUR -> 50000).
func AmountToMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func (s *paymentServiceImpl) CreateIntent(ctx context.Context, projectID, callerUserID int64) (*dto.CreateIntentResponse, error) {
	proj, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	ent, err := s.entrepreneurs.GetByUserID(ctx, callerUserID)
	if err != nil || ent.ID != proj.EntrepreneurID {
		return nil, apperrors.ErrPermissionDenied
	}

	status, ok := lifecycle.NormalizeStatus(proj.Status)
	if !ok || status != lifecycle.StatusPayment {
		return nil, fmt.Errorf("%w: payment requires status %s", apperrors.ErrInvalidTransition, lifecycle.StatusPayment)
	}
	if proj.Price <= 0 {
		return nil, apperrors.ErrPriceNotSet
	}

	intent, err := s.gateway.CreateIntent(ctx, AmountToMinor(proj.Price), s.config.Currency, map[string]string{
		"projectId": strconv.FormatInt(projectID, 10),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("projectID", projectID).
		Str("intentID", intent.ID).
		Int64("amountMinor", intent.Amount).
		Msg("Payment intent created")

	return &dto.CreateIntentResponse{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
	}, nil
}

func (s *paymentServiceImpl) Confirm(ctx context.Context, paymentIntentID string) (*dto.ConfirmPaymentResponse, error) {
	intent, err := s.gateway.GetIntent(ctx, paymentIntentID)
	if err != nil {
		metrics.PaymentConfirmations.WithLabelValues("gateway_error").Inc()
		return nil, err
	}

	projectID, err := strconv.ParseInt(intent.Metadata["projectId"], 10, 64)
	if err != nil {
		metrics.PaymentConfirmations.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: intent %s carries no project id", apperrors.ErrValidationFailed, paymentIntentID)
	}

	if intent.Status != gateway.IntentStatusSucceeded {
		// Nothing mutates on a pending or failed intent.
		metrics.PaymentConfirmations.WithLabelValues("not_succeeded").Inc()
		proj, err := s.projects.GetByID(ctx, projectID)
		if err != nil {
			return nil, err
		}
		return &dto.ConfirmPaymentResponse{
			Success:       false,
			PaymentStatus: intent.Status,
			ProjectStatus: proj.Status,
		}, nil
	}

	result, err := s.lifecycle.ConfirmPayment(ctx, projectID, intent)
	if err != nil {
		metrics.PaymentConfirmations.WithLabelValues("error").Inc()
		return nil, err
	}

	if result.AlreadyApplied {
		metrics.PaymentConfirmations.WithLabelValues("duplicate").Inc()
	} else {
		metrics.PaymentConfirmations.WithLabelValues("succeeded").Inc()
	}

	return &dto.ConfirmPaymentResponse{
		Success:       true,
		PaymentStatus: intent.Status,
		ProjectStatus: string(result.Status),
	}, nil
}

func (s *paymentServiceImpl) HandleWebhook(ctx context.Context, event dto.WebhookEvent) error {
	if event.Type != "payment_intent.succeeded" {
		s.logger.Debug().Str("type", event.Type).Msg("Ignoring gateway webhook event")
		return nil
	}
	if event.Data.Object.ID == "" {
		return fmt.Errorf("%w: webhook event carries no intent id", apperrors.ErrValidationFailed)
	}

	_, err := s.Confirm(ctx, event.Data.Object.ID)
	return err
}

func (s *paymentServiceImpl) CreateTip(ctx context.Context, projectID int64, amount float64, studentName string) (*dto.TipResponse, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: tip amount must be positive", apperrors.ErrValidationFailed)
	}

	productName := fmt.Sprintf("Pourboire pour %s", studentName)
	session, err := s.gateway.CreateCheckoutSession(ctx, AmountToMinor(amount), s.config.Currency, productName, s.config.SuccessURL, s.config.CancelURL)
	if err != nil {
		return nil, err
	}

	return &dto.TipResponse{CheckoutURL: session.URL}, nil
}
