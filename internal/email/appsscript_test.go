package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAppsScriptProviderSendEmail(t *testing.T) {
	t.Parallel()

	var got appsScriptRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	p := NewAppsScriptProvider(srv.URL, "Kmetija <info@example.com>", srv.Client())
	err := p.SendEmail(context.Background(), &Email{
		To:      "kupec@example.com",
		Subject: "Pozdrav",
		Text:    "Živjo",
		ReplyTo: "odgovor@example.com",
	})
	if err != nil {
		t.Fatalf("SendEmail() error = %v", err)
	}

	want := appsScriptRequest{
		To:      "kupec@example.com",
		Subject: "Pozdrav",
		Body:    "Živjo",
		From:    "Kmetija <info@example.com>",
		ReplyTo: "odgovor@example.com",
	}
	if got != want {
		t.Fatalf("payload = %+v, want %+v", got, want)
	}
}

func TestAppsScriptProviderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "script reports failure", status: http.StatusOK, body: `{"success":false,"error":"quota exceeded"}`, wantErr: "quota exceeded"},
		{name: "http failure", status: http.StatusInternalServerError, body: "boom", wantErr: "status 500"},
		{name: "non json success", status: http.StatusOK, body: "OK"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewAppsScriptProvider(srv.URL, "", srv.Client())
			err := p.SendEmail(context.Background(), &Email{To: "a@example.com", Subject: "s", Text: "t"})
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSendEmailRejectsEmptyBody(t *testing.T) {
	t.Parallel()

	p := NewAppsScriptProvider("http://127.0.0.1:1", "", nil)
	err := p.SendEmail(context.Background(), &Email{To: "a@example.com", Subject: "s"})
	if !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "apps script", config: Config{Provider: "appsscript", EndpointURL: "https://script.google.com/x"}},
		{name: "apps script without url", config: Config{Provider: "appsscript"}, wantErr: true},
		{name: "resend", config: Config{Provider: "resend", APIKey: "re_123"}},
		{name: "resend without key", config: Config{Provider: "resend"}, wantErr: true},
		{name: "unknown", config: Config{Provider: "postmark"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p, err := NewProvider(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got provider %T", p)
				}
				return
			}
			if err != nil || p == nil {
				t.Fatalf("NewProvider() = %v, %v", p, err)
			}
		})
	}
}
