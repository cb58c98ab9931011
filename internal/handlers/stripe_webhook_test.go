package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	stripeapi "github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

func signedWebhookRequest(t *testing.T, payload string, secret string) *http.Request {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

const succeededPayload = `{"id":"evt_paid_1","object":"event","api_version":"2020-08-27","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","object":"payment_intent","amount":2090,"currency":"eur","status":"succeeded"}}}`

func TestStripeWebhook_ProcessesEventOnce(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		env.handlers.StripeWebhook(rec, signedWebhookRequest(t, succeededPayload, testWebhookSecret))
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: expected status %d, got %d: %s", i+1, http.StatusOK, rec.Code, rec.Body.String())
		}
	}

	if len(env.events.succeeded) != 1 || env.events.succeeded[0] != "evt_paid_1" {
		t.Fatalf("expected the event handled once, got %v", env.events.succeeded)
	}
}

func TestStripeWebhook_RejectsBadSignature(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.handlers.StripeWebhook(rec, signedWebhookRequest(t, succeededPayload, "whsec_someone_else"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if len(env.events.succeeded) != 0 {
		t.Fatalf("event must not be handled")
	}
}

func TestStripeWebhook_FailureIsRetried(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.events.err = errors.New("database unavailable")

	rec := httptest.NewRecorder()
	env.handlers.StripeWebhook(rec, signedWebhookRequest(t, succeededPayload, testWebhookSecret))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, rec.Code)
	}

	env.events.err = nil
	rec = httptest.NewRecorder()
	env.handlers.StripeWebhook(rec, signedWebhookRequest(t, succeededPayload, testWebhookSecret))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected redelivery to succeed, got %d", rec.Code)
	}
	if len(env.events.succeeded) != 2 {
		t.Fatalf("expected failed event to be handled again, got %v", env.events.succeeded)
	}
}

func TestStripeEventRouter_Routes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		eventType     string
		wantSucceeded int
		wantFailed    int
	}{
		{name: "succeeded", eventType: "payment_intent.succeeded", wantSucceeded: 1},
		{name: "failed", eventType: "payment_intent.payment_failed", wantFailed: 1},
		{name: "unhandled", eventType: "charge.refunded"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			events := &recordingPaymentHandler{}
			router := NewStripeEventRouter(events, nil, discardLogger())
			err := router.Handle(context.Background(), &stripeapi.Event{
				ID:   "evt_" + tt.name,
				Type: stripeapi.EventType(tt.eventType),
				Data: &stripeapi.EventData{Raw: []byte(`{"id":"pi_x"}`)},
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(events.succeeded) != tt.wantSucceeded || len(events.failed) != tt.wantFailed {
				t.Fatalf("succeeded=%v failed=%v", events.succeeded, events.failed)
			}
		})
	}
}

func TestStripeEventRouter_RejectsMissingData(t *testing.T) {
	t.Parallel()

	router := NewStripeEventRouter(&recordingPaymentHandler{}, nil, discardLogger())
	if err := router.Handle(context.Background(), &stripeapi.Event{ID: "evt_empty", Type: "payment_intent.succeeded"}); err == nil {
		t.Fatal("expected error for event without data")
	}
	if err := router.Handle(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil event")
	}
}
