package stripe

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84/webhook"
)

func signedRequest(t *testing.T, payload []byte, secret string) *http.Request {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

func TestReadWebhookEvent_MissingSignature(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/webhooks/stripe", bytes.NewBufferString(`{}`))
	_, err := ReadWebhookEvent(req, "whsec_test")
	if err == nil {
		t.Fatal("expected error for missing signature")
	}
}

func TestReadWebhookEvent_WrongSecret(t *testing.T) {
	t.Parallel()

	payload := []byte(`{"id":"evt_test","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","object":"payment_intent"}}}`)
	req := signedRequest(t, payload, "whsec_other")

	if _, err := ReadWebhookEvent(req, "whsec_test"); err == nil {
		t.Fatal("expected signature validation error")
	}
}

func TestReadWebhookEvent_PaymentIntent(t *testing.T) {
	t.Parallel()

	secret := "whsec_test_secret"
	payload := []byte(`{"id":"evt_test","object":"event","api_version":"2020-08-27","type":"payment_intent.payment_failed","data":{"object":{"id":"pi_123","object":"payment_intent","amount":2390,"currency":"eur","status":"requires_payment_method","metadata":{"order_id":"ord-1"},"last_payment_error":{"message":"Your card was declined.","code":"card_declined"}}}}`)
	req := signedRequest(t, payload, secret)

	event, err := ReadWebhookEvent(req, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ID != "evt_test" || string(event.Type) != EventPaymentIntentPaymentFailed {
		t.Fatalf("unexpected event: %+v", event)
	}

	intent, err := PaymentIntentFromEvent(event)
	if err != nil {
		t.Fatalf("PaymentIntentFromEvent() error = %v", err)
	}
	if intent.ID != "pi_123" || intent.Metadata["order_id"] != "ord-1" {
		t.Fatalf("unexpected intent: %+v", intent)
	}
	if got := FailureMessage(intent); got != "Your card was declined." {
		t.Fatalf("FailureMessage() = %q", got)
	}
}

func TestPaymentIntentFromEventRequiresID(t *testing.T) {
	t.Parallel()

	if _, err := PaymentIntentFromEvent(nil); err == nil {
		t.Fatal("expected error for nil event")
	}
}
