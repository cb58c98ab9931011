package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	stripeapi "github.com/stripe/stripe-go/v84"

	"github.com/kmetijamarosa/storefront/internal/logging"
	"github.com/kmetijamarosa/storefront/internal/metrics"
	"github.com/kmetijamarosa/storefront/internal/observability"
	"github.com/kmetijamarosa/storefront/internal/stripe"
)

// PaymentEventHandler applies payment intent outcomes. *services.StripeService implements it.
type PaymentEventHandler interface {
	HandlePaymentIntentSucceeded(ctx context.Context, event *stripeapi.Event) error
	HandlePaymentIntentFailed(ctx context.Context, event *stripeapi.Event) error
}

type StripeEventRouter struct {
	service PaymentEventHandler
	metrics *metrics.Storefront
	logger  *slog.Logger
}

func NewStripeEventRouter(service PaymentEventHandler, m *metrics.Storefront, logger *slog.Logger) *StripeEventRouter {
	return &StripeEventRouter{
		service: service,
		metrics: m,
		logger:  logging.OrDiscard(logger),
	}
}

func (r *StripeEventRouter) Handle(ctx context.Context, event *stripeapi.Event) error {
	span := sentry.StartSpan(
		ctx,
		"handler.stripe_router.handle",
		sentry.WithOpName("handler.stripe_router"),
		sentry.WithDescription("StripeEventRouter.Handle"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	meter := observability.MeterFromContext(ctx)
	meter.SetAttributes(attribute.String("webhook.provider", "stripe"))
	meter.Count("webhook.router.received", 1)
	recordFailed := func(reason string) {
		meter.Count("webhook.router.failed", 1, sentry.WithAttributes(attribute.String("reason", reason)))
	}

	if event == nil {
		recordFailed("missing_event")
		return fmt.Errorf("missing stripe event")
	}
	if event.Data == nil {
		recordFailed("missing_event_data")
		r.metrics.IncWebhookEvent(string(event.Type), false)
		return fmt.Errorf("missing stripe event data")
	}
	eventType := string(event.Type)
	meter.SetAttributes(attribute.String("webhook.event_type", eventType))

	var handle func(context.Context, *stripeapi.Event) error
	switch eventType {
	case stripe.EventPaymentIntentSucceeded:
		handle = r.service.HandlePaymentIntentSucceeded
	case stripe.EventPaymentIntentPaymentFailed:
		handle = r.service.HandlePaymentIntentFailed
	default:
		logging.FromContext(ctx, r.logger).Info("unhandled Stripe event type", "type", eventType)
		meter.Count("webhook.router.unhandled", 1)
		r.metrics.IncWebhookEvent("unhandled", true)
		span.Status = sentry.SpanStatusOK
		return nil
	}

	if err := handle(ctx, event); err != nil {
		recordFailed(eventType + "_failed")
		r.metrics.IncWebhookEvent(eventType, false)
		return err
	}
	meter.Count("webhook.router.processed", 1)
	r.metrics.IncWebhookEvent(eventType, true)
	span.Status = sentry.SpanStatusOK
	return nil
}
