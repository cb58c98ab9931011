package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kmetijamarosa/storefront/internal/consent"
)

func TestConsent_DefaultsBeforeChoice(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.serve(env.handlers.GetConsent, jsonRequest(http.MethodGet, "/api/consent", ""))

	var resp consentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Given || !resp.Necessary || resp.Analytics {
		t.Fatalf("unexpected default consent: %+v", resp)
	}
}

func TestConsent_UpdateAndRevoke(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.serve(env.handlers.UpdateConsent, jsonRequest(http.MethodPut, "/api/consent",
		`{"necessary":false,"functional":true,"analytics":true,"marketing":false}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()

	var resp consentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Necessary || !resp.Functional || !resp.Given {
		t.Fatalf("necessary must stay on: %+v", resp)
	}

	rec = env.serve(env.handlers.UpdateConsent, jsonRequest(http.MethodPut, "/api/consent",
		`{"functional":false,"analytics":true}`, cookies...))
	resp = consentResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Revoked) != 1 || resp.Revoked[0] != consent.Functional {
		t.Fatalf("expected functional revoked, got %v", resp.Revoked)
	}

	rec = env.serve(env.handlers.GetConsent, jsonRequest(http.MethodGet, "/api/consent", "", cookies...))
	resp = consentResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Functional || !resp.Analytics {
		t.Fatalf("stored consent not returned: %+v", resp)
	}
}

func TestDiscountBanner_FollowsFunctionalConsent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.serve(env.handlers.MarkDiscountBannerShown, jsonRequest(http.MethodPost, "/api/discount-banner/shown", ""))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status %d without consent, got %d", http.StatusConflict, rec.Code)
	}

	rec = env.serve(env.handlers.UpdateConsent, jsonRequest(http.MethodPut, "/api/consent", `{"functional":true}`))
	cookies := rec.Result().Cookies()

	rec = env.serve(env.handlers.MarkDiscountBannerShown, jsonRequest(http.MethodPost, "/api/discount-banner/shown", "", cookies...))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if shown := bannerShown(t, env.serve(env.handlers.GetDiscountBanner, jsonRequest(http.MethodGet, "/api/discount-banner", "", cookies...))); !shown {
		t.Fatal("banner flag should be stored")
	}

	env.serve(env.handlers.UpdateConsent, jsonRequest(http.MethodPut, "/api/consent", `{"functional":false}`, cookies...))
	if shown := bannerShown(t, env.serve(env.handlers.GetDiscountBanner, jsonRequest(http.MethodGet, "/api/discount-banner", "", cookies...))); shown {
		t.Fatal("banner flag should be purged when functional consent is revoked")
	}
}

func bannerShown(t *testing.T, rec *httptest.ResponseRecorder) bool {
	t.Helper()
	var resp discountBannerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Shown
}
