package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Storefront records counters for the pricing, image and payment paths.
// A nil *Storefront is valid and records nothing.
type Storefront struct {
	cartQuotes       prometheus.Counter
	droppedLines     *prometheus.CounterVec
	imageValidations *prometheus.CounterVec
	paymentIntents   *prometheus.CounterVec
	webhookEvents    *prometheus.CounterVec
	emails           *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New registers the storefront metrics on the provided registerer.
func New(reg prometheus.Registerer) *Storefront {
	if reg == nil {
		return &Storefront{}
	}
	cartQuotes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_cart_quotes_total",
		Help: "Cart quotes computed.",
	})
	droppedLines := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_cart_dropped_lines_total",
		Help: "Cart lines skipped because the product or package option no longer exists.",
	}, []string{"reason"})
	imageValidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_image_validations_total",
		Help: "Remote image probes by result.",
	}, []string{"result"})
	paymentIntents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_payment_intents_total",
		Help: "Payment intent creation attempts by result.",
	}, []string{"result"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_webhook_events_total",
		Help: "Stripe webhook events by type and result.",
	}, []string{"type", "result"})
	emails := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_emails_total",
		Help: "Outbound emails by kind and result.",
	}, []string{"kind", "result"})
	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_http_request_duration_seconds",
		Help:    "HTTP request latency by route, method and status class.",
		Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status"})
	reg.MustRegister(cartQuotes, droppedLines, imageValidations, paymentIntents, webhookEvents, emails, httpDuration)
	return &Storefront{
		cartQuotes:       cartQuotes,
		droppedLines:     droppedLines,
		imageValidations: imageValidations,
		paymentIntents:   paymentIntents,
		webhookEvents:    webhookEvents,
		emails:           emails,
		httpDuration:     httpDuration,
	}
}

func (m *Storefront) IncCartQuote() {
	if m == nil || m.cartQuotes == nil {
		return
	}
	m.cartQuotes.Inc()
}

// IncDroppedLine counts a cart line excluded from a quote.
func (m *Storefront) IncDroppedLine(reason string) {
	if m == nil || m.droppedLines == nil {
		return
	}
	m.droppedLines.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *Storefront) IncImageValidation(valid bool) {
	if m == nil || m.imageValidations == nil {
		return
	}
	m.imageValidations.WithLabelValues(resultLabel(valid)).Inc()
}

func (m *Storefront) IncPaymentIntent(ok bool) {
	if m == nil || m.paymentIntents == nil {
		return
	}
	m.paymentIntents.WithLabelValues(resultLabel(ok)).Inc()
}

func (m *Storefront) IncWebhookEvent(eventType string, ok bool) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), resultLabel(ok)).Inc()
}

func (m *Storefront) IncEmail(kind string, ok bool) {
	if m == nil || m.emails == nil {
		return
	}
	m.emails.WithLabelValues(normalizeLabel(kind), resultLabel(ok)).Inc()
}

// ObserveHTTPRequest records one served request. Status is bucketed to its class.
func (m *Storefront) ObserveHTTPRequest(route, method string, status int, elapsed time.Duration) {
	if m == nil || m.httpDuration == nil {
		return
	}
	m.httpDuration.WithLabelValues(normalizeLabel(route), method, strconv.Itoa(status/100)+"xx").Observe(elapsed.Seconds())
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
