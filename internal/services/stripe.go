package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/kmetijamarosa/storefront/internal/db"
	"github.com/kmetijamarosa/storefront/internal/logging"
	"github.com/kmetijamarosa/storefront/internal/models"
	"github.com/kmetijamarosa/storefront/internal/stripe"
)

type OrderPaymentStore interface {
	MarkPaid(ctx context.Context, paymentIntentID string) (*models.Order, bool, error)
	MarkFailed(ctx context.Context, paymentIntentID, reason string) error
}

// StripeService applies payment intent outcomes to orders.
type StripeService struct {
	orderStore  OrderPaymentStore
	emailSender OrderEmailSender
	logger      *slog.Logger
}

func NewStripeService(orderStore OrderPaymentStore, emailSender OrderEmailSender, logger *slog.Logger) *StripeService {
	if emailSender == nil {
		emailSender = noopOrderEmailSender{}
	}

	return &StripeService{
		orderStore:  orderStore,
		emailSender: emailSender,
		logger:      logging.OrDiscard(logger),
	}
}

func (s *StripeService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

// HandlePaymentIntentSucceeded marks the order paid and sends the customer confirmation
// and the shop notification. Email failures are logged and do not fail the event.
func (s *StripeService) HandlePaymentIntentSucceeded(ctx context.Context, event *stripeapi.Event) error {
	logger := s.loggerFromContext(ctx)

	intent, err := stripe.PaymentIntentFromEvent(event)
	if err != nil {
		return err
	}

	order, changed, err := s.orderStore.MarkPaid(ctx, intent.ID)
	if err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			// Direct-mode intents have no stored order.
			logger.Info("payment succeeded for intent without order", "intent_id", intent.ID, "order_id", intent.Metadata["order_id"])
			return nil
		}
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			logger.Info("ignoring payment_intent.succeeded due to state transition", "intent_id", intent.ID, "error", err)
			return nil
		}
		return fmt.Errorf("failed to mark order as paid: %w", err)
	}
	if !changed {
		logger.Info("order already paid", "order_id", order.ID, "intent_id", intent.ID)
		return nil
	}

	logger.Info("order paid", "order_id", order.ID, "order_number", order.OrderNumber, "intent_id", intent.ID)

	if err := s.emailSender.SendOrderConfirmation(ctx, order); err != nil {
		logger.Error("failed to send order confirmation email", "error", err, "order_id", order.ID)
	}
	if err := s.emailSender.SendShopNotification(ctx, order); err != nil {
		logger.Error("failed to send shop notification email", "error", err, "order_id", order.ID)
	}
	return nil
}

func (s *StripeService) HandlePaymentIntentFailed(ctx context.Context, event *stripeapi.Event) error {
	logger := s.loggerFromContext(ctx)

	intent, err := stripe.PaymentIntentFromEvent(event)
	if err != nil {
		return err
	}

	reason := stripe.FailureMessage(intent)
	if reason == "" {
		reason = "payment_intent_failed"
	}

	if err := s.orderStore.MarkFailed(ctx, intent.ID, reason); err != nil {
		if errors.Is(err, db.ErrOrderNotFound) {
			logger.Info("payment failed for intent without order", "intent_id", intent.ID)
			return nil
		}
		if errors.Is(err, db.ErrInvalidStatusTransition) {
			logger.Info("ignoring payment_intent.payment_failed due to state transition", "intent_id", intent.ID, "error", err)
			return nil
		}
		return fmt.Errorf("failed to mark order as payment_failed: %w", err)
	}

	logger.Info("payment failure handled", "intent_id", intent.ID, "reason", reason)
	return nil
}
