package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/kmetijamarosa/storefront/internal/email"
	"github.com/kmetijamarosa/storefront/internal/logging"
	"github.com/kmetijamarosa/storefront/internal/metrics"
	"github.com/kmetijamarosa/storefront/internal/models"
)

var (
	ErrEmailNotConfigured = errors.New("email provider is not configured")
	ErrInvalidEmail       = errors.New("invalid email request")
)

type OrderEmailSender interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
	SendShopNotification(ctx context.Context, order *models.Order) error
}

type noopOrderEmailSender struct{}

func (noopOrderEmailSender) SendOrderConfirmation(context.Context, *models.Order) error {
	return nil
}

func (noopOrderEmailSender) SendShopNotification(context.Context, *models.Order) error {
	return nil
}

// EmailService renders order emails and relays contact-form messages through one provider.
type EmailService struct {
	provider email.Provider
	renderer *email.Renderer
	validate *validator.Validate
	metrics  *metrics.Storefront
	logger   *slog.Logger
}

func NewEmailService(provider email.Provider, renderer *email.Renderer, m *metrics.Storefront, logger *slog.Logger) *EmailService {
	return &EmailService{
		provider: provider,
		renderer: renderer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		metrics:  m,
		logger:   logging.OrDiscard(logger),
	}
}

func (s *EmailService) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	return s.sendOrderEmail(ctx, email.TemplateOrderConfirmation, order)
}

func (s *EmailService) SendShopNotification(ctx context.Context, order *models.Order) error {
	return s.sendOrderEmail(ctx, email.TemplateShopNotification, order)
}

func (s *EmailService) sendOrderEmail(ctx context.Context, templateName string, order *models.Order) error {
	if s.provider == nil || s.renderer == nil {
		return ErrEmailNotConfigured
	}
	msg, err := s.renderer.Render(templateName, email.NewOrderInfo(order))
	if err != nil {
		return err
	}
	err = s.provider.SendEmail(ctx, msg)
	s.metrics.IncEmail(templateName, err == nil)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", templateName, err)
	}
	logging.FromContext(ctx, s.logger).Info("order email sent", "template", templateName, "order_id", order.ID)
	return nil
}

// SendRequest is the body of POST /api/email/send. Body is either a string or a JSON
// document; documents are forwarded verbatim for the mail proxy to format.
type SendRequest struct {
	To      string          `json:"to" validate:"required,email"`
	Subject string          `json:"subject" validate:"required,max=300"`
	Body    json.RawMessage `json:"body" validate:"required"`
	HTML    string          `json:"htmlBody,omitempty"`
	From    string          `json:"from,omitempty" validate:"omitempty,max=300"`
	ReplyTo string          `json:"replyTo,omitempty" validate:"omitempty,email"`
}

func (s *EmailService) Send(ctx context.Context, req SendRequest) error {
	if s.provider == nil {
		return ErrEmailNotConfigured
	}
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEmail, err)
	}
	body, err := bodyText(req.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEmail, err)
	}

	err = s.provider.SendEmail(ctx, &email.Email{
		To:      strings.TrimSpace(req.To),
		Subject: req.Subject,
		Text:    body,
		HTML:    req.HTML,
		From:    req.From,
		ReplyTo: req.ReplyTo,
	})
	s.metrics.IncEmail("contact", err == nil)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func bodyText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", email.ErrEmptyBody
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return "", err
		}
		if strings.TrimSpace(text) == "" {
			return "", email.ErrEmptyBody
		}
		return text, nil
	}
	if !json.Valid(raw) {
		return "", fmt.Errorf("body is not valid JSON")
	}
	return string(raw), nil
}
