// Package stripe creates payment intents and verifies webhook events.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v84"
)

var (
	ErrInvalidAmount   = errors.New("amount must be a positive integer in minor units")
	ErrInvalidCurrency = errors.New("currency must be eur")
)

const Currency = "eur"

// PaymentIntentRequest describes a card payment for one order.
type PaymentIntentRequest struct {
	Amount         int64
	Currency       string
	OrderID        string
	ReceiptEmail   string
	Description    string
	IdempotencyKey string
}

func (r PaymentIntentRequest) Validate() error {
	if r.Amount <= 0 {
		return ErrInvalidAmount
	}
	if !strings.EqualFold(strings.TrimSpace(r.Currency), Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

type ClientOptions struct {
	HTTPClient *http.Client
	// BaseURL overrides the Stripe API endpoint.
	BaseURL string
}

type Client struct {
	client *stripe.Client
}

func NewClient(secretKey string, opts ClientOptions) *Client {
	retries := int64(2)
	config := &stripe.BackendConfig{
		HTTPClient:        opts.HTTPClient,
		MaxNetworkRetries: &retries,
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelWarn},
	}
	if opts.BaseURL != "" {
		config.URL = stripe.String(opts.BaseURL)
	}
	return &Client{
		client: stripe.NewClient(secretKey, stripe.WithBackends(stripe.NewBackendsWithConfig(config))),
	}
}

// CreatePaymentIntent starts an automatic-payment-methods intent and tags it with the order id.
func (c *Client) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if req.OrderID != "" {
		params.AddMetadata("order_id", req.OrderID)
	}
	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	intent, err := c.client.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}, nil
}

// ErrorMessage extracts the user-facing message from a Stripe API error.
func ErrorMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	return ""
}
