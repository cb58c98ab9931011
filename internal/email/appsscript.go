package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AppsScriptProvider posts messages to a Google Apps Script web app that relays them through Gmail.
type AppsScriptProvider struct {
	endpoint string
	from     string
	client   *http.Client
}

type appsScriptRequest struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"htmlBody,omitempty"`
	From     string `json:"from,omitempty"`
	ReplyTo  string `json:"replyTo,omitempty"`
}

type appsScriptResponse struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

func NewAppsScriptProvider(endpoint, from string, client *http.Client) *AppsScriptProvider {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &AppsScriptProvider{
		endpoint: endpoint,
		from:     from,
		client:   client,
	}
}

func (p *AppsScriptProvider) SendEmail(ctx context.Context, email *Email) error {
	if err := email.validate(); err != nil {
		return err
	}

	payload := appsScriptRequest{
		To:       email.To,
		Subject:  email.Subject,
		Body:     email.Text,
		HTMLBody: email.HTML,
		From:     p.from,
		ReplyTo:  email.ReplyTo,
	}
	if payload.Body == "" {
		payload.Body = email.HTML
	}
	if email.From != "" {
		payload.From = email.From
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	closeErr := resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("failed to read email endpoint response: %w", readErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close email endpoint response body: %w", closeErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("email endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	// The script answers 200 for handled errors, with success=false.
	var result appsScriptResponse
	if json.Unmarshal(body, &result) == nil && result.Success != nil && !*result.Success {
		if result.Error == "" {
			result.Error = "unknown error"
		}
		return fmt.Errorf("email endpoint error: %s", result.Error)
	}

	return nil
}
