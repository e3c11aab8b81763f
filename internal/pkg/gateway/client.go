// Package gateway is the HTTP client for the card-payment gateway. The
// lifecycle treats the gateway as an external collaborator: it creates
// payment intents carrying the project id as metadata and re-fetches intent
// state before trusting any confirmation.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/tiroapp/tiro-backend/internal/pkg/apperrors"
)

// IntentStatusSucceeded is the only intent status that allows a payment
// confirmation to mutate project state.
const IntentStatusSucceeded = "succeeded"

// Intent is the gateway's payment-intent resource, trimmed to the fields
// the lifecycle consumes.
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

// CheckoutSession is the gateway's hosted-checkout resource used for tips.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client defines the gateway operations the payment service needs.
type Client interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error)
	GetIntent(ctx context.Context, intentID string) (*Intent, error)
	CreateCheckoutSession(ctx context.Context, amountMinor int64, currency, productName, successURL, cancelURL string) (*CheckoutSession, error)
}

// Config holds gateway client configuration
type Config struct {
	BaseURL   string
	SecretKey string
}

type httpClient struct {
	config  Config
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// NewClient creates a gateway client. All calls go through a circuit
// breaker so a dead gateway fails fast instead of tying up request workers.
func NewClient(config Config, logger zerolog.Logger) Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &httpClient{
		config:  config,
		http:    &http.Client{Timeout: 15 * time.Second},
		breaker: breaker,
		logger:  logger,
	}
}

// CreateIntent creates a payment intent for the given amount in minor units
func (c *httpClient) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinor, 10))
	form.Set("currency", currency)
	for k, v := range metadata {
		form.Set("metadata["+k+"]", v)
	}

	var intent Intent
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents", form, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// GetIntent re-fetches an intent from the gateway. Confirmation handlers
// call this instead of trusting any client-supplied status.
func (c *httpClient) GetIntent(ctx context.Context, intentID string) (*Intent, error) {
	if intentID == "" {
		return nil, apperrors.ErrIntentNotFound
	}

	var intent Intent
	if err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(intentID), nil, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// CreateCheckoutSession creates a hosted checkout session (tip flow)
func (c *httpClient) CreateCheckoutSession(ctx context.Context, amountMinor int64, currency, productName, successURL, cancelURL string) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", successURL)
	form.Set("cancel_url", cancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(amountMinor, 10))
	form.Set("line_items[0][price_data][product_data][name]", productName)

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// gatewayError is the gateway's error envelope
type gatewayError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *httpClient) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}

		req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
		if err != nil {
			return nil, fmt.Errorf("failed to build gateway request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("gateway request failed: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read gateway response: %w", err)
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, apperrors.ErrIntentNotFound
		}
		if resp.StatusCode >= 400 {
			var gwErr gatewayError
			_ = json.Unmarshal(data, &gwErr)
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("path", path).
				Str("code", gwErr.Error.Code).
				Msg("Gateway returned an error")
			return nil, fmt.Errorf("gateway error (%d): %s", resp.StatusCode, gwErr.Error.Message)
		}

		return data, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return fmt.Errorf("%w: %v", apperrors.ErrGatewayUnavailable, err)
		}
		return err
	}

	if out != nil {
		if err := json.Unmarshal(result.([]byte), out); err != nil {
			return fmt.Errorf("failed to decode gateway response: %w", err)
		}
	}
	return nil
}
