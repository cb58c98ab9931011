// Package email sends order and contact emails through a configurable provider.
package email

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var ErrEmptyBody = errors.New("email body is empty")

type Provider interface {
	SendEmail(ctx context.Context, email *Email) error
}

// Email is one outgoing message. From and ReplyTo override the provider defaults when set.
type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
	From    string
	ReplyTo string
}

func (e *Email) validate() error {
	if e == nil {
		return fmt.Errorf("email is required")
	}
	if strings.TrimSpace(e.To) == "" {
		return fmt.Errorf("email recipient is required")
	}
	if e.Text == "" && e.HTML == "" {
		return ErrEmptyBody
	}
	return nil
}

type Config struct {
	Provider    string
	EndpointURL string
	APIKey      string
	From        string
	HTTPClient  *http.Client
}

func NewProvider(config Config) (Provider, error) {
	switch config.Provider {
	case "appsscript", "":
		if strings.TrimSpace(config.EndpointURL) == "" {
			return nil, fmt.Errorf("email endpoint URL is required for the appsscript provider")
		}
		return NewAppsScriptProvider(config.EndpointURL, config.From, config.HTTPClient), nil
	case "resend":
		if strings.TrimSpace(config.APIKey) == "" {
			return nil, fmt.Errorf("resend API key is required")
		}
		return NewResendProvider(config.APIKey, config.From, config.HTTPClient), nil
	default:
		return nil, fmt.Errorf("EMAIL_PROVIDER must be either 'appsscript' or 'resend'")
	}
}
