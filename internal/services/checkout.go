package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kmetijamarosa/storefront/internal/cart"
	"github.com/kmetijamarosa/storefront/internal/logging"
	"github.com/kmetijamarosa/storefront/internal/metrics"
	"github.com/kmetijamarosa/storefront/internal/models"
	"github.com/kmetijamarosa/storefront/internal/observability"
	"github.com/kmetijamarosa/storefront/internal/stripe"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidCustomer = errors.New("invalid customer details")
	ErrPaymentsOff     = errors.New("payments are not configured")
)

type PaymentIntentCreator interface {
	CreatePaymentIntent(ctx context.Context, req stripe.PaymentIntentRequest) (*stripe.PaymentIntent, error)
}

type OrderWriter interface {
	Create(ctx context.Context, order *models.Order) error
	AttachPaymentIntent(ctx context.Context, orderID uuid.UUID, paymentIntentID string) error
}

// PaymentIntentInput is the direct form: the client already knows the amount.
type PaymentIntentInput struct {
	Amount   int64
	Currency string
	OrderID  string
}

type CheckoutResult struct {
	ClientSecret    string      `json:"clientSecret"`
	PaymentIntentID string      `json:"paymentIntentId"`
	OrderID         uuid.UUID   `json:"orderId"`
	OrderNumber     int64       `json:"orderNumber"`
	Amount          int64       `json:"amount"`
	Quote           *cart.Quote `json:"quote"`
}

type CheckoutService struct {
	payments PaymentIntentCreator
	orders   OrderWriter
	carts    *CartService
	validate *validator.Validate
	metrics  *metrics.Storefront
	logger   *slog.Logger
}

func NewCheckoutService(payments PaymentIntentCreator, orders OrderWriter, carts *CartService, m *metrics.Storefront, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		payments: payments,
		orders:   orders,
		carts:    carts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  m,
		logger:   logging.OrDiscard(logger),
	}
}

// CreatePaymentIntent creates an intent for a client-computed amount in minor units.
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, input PaymentIntentInput) (*stripe.PaymentIntent, error) {
	if s.payments == nil {
		return nil, ErrPaymentsOff
	}
	req := stripe.PaymentIntentRequest{
		Amount:   input.Amount,
		Currency: input.Currency,
		OrderID:  input.OrderID,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.createIntent(ctx, req)
}

// CheckoutCart prices the cart server side, stores a pending order and opens a payment
// intent for its total.
func (s *CheckoutService) CheckoutCart(ctx context.Context, c *cart.Cart, customer models.Customer) (*CheckoutResult, error) {
	logger := logging.FromContext(ctx, s.logger)
	if s.payments == nil || s.orders == nil {
		return nil, ErrPaymentsOff
	}
	if err := s.validate.Struct(customer); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCustomer, err)
	}

	quote, err := s.carts.Quote(ctx, c)
	if err != nil {
		return nil, err
	}
	if len(quote.Items) == 0 && len(quote.Gifts) == 0 {
		return nil, ErrEmptyCart
	}

	order := models.NewOrderFromQuote(quote, customer)
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	intent, err := s.createIntent(ctx, stripe.PaymentIntentRequest{
		Amount:         order.AmountMinorUnits(),
		Currency:       stripe.Currency,
		OrderID:        order.ID.String(),
		ReceiptEmail:   customer.Email,
		Description:    fmt.Sprintf("Naročilo št. %d", order.OrderNumber),
		IdempotencyKey: "order-" + order.ID.String(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.orders.AttachPaymentIntent(ctx, order.ID, intent.ID); err != nil {
		return nil, fmt.Errorf("failed to attach payment intent: %w", err)
	}

	logger.Info("checkout started", "order_id", order.ID, "order_number", order.OrderNumber, "payment_intent_id", intent.ID, "amount", order.AmountMinorUnits())
	return &CheckoutResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		Amount:          order.AmountMinorUnits(),
		Quote:           quote,
	}, nil
}

func (s *CheckoutService) createIntent(ctx context.Context, req stripe.PaymentIntentRequest) (*stripe.PaymentIntent, error) {
	meter := observability.MeterFromContext(ctx)
	mode := "direct"
	if req.IdempotencyKey != "" {
		mode = "cart"
	}
	meter.SetAttributes(attribute.String("component", "checkout"), attribute.String("checkout.mode", mode))

	intent, err := s.payments.CreatePaymentIntent(ctx, req)
	s.metrics.IncPaymentIntent(err == nil)
	if err != nil {
		meter.Count("checkout.payment_intent.failed", 1, sentry.WithAttributes(attribute.String("reason", failureReason(err))))
		logging.FromContext(ctx, s.logger).Error("failed to create payment intent", "error", err, "order_id", req.OrderID, "amount", req.Amount)
		return nil, err
	}
	meter.Count("checkout.payment_intent.created", 1)
	return intent, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, stripe.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, stripe.ErrInvalidCurrency):
		return "invalid_currency"
	case stripe.ErrorMessage(err) != "":
		return "stripe_error"
	}
	return "unknown"
}
