package observability

import (
	"net/http"
	"time"

	sentryhttpclient "github.com/getsentry/sentry-go/httpclient"
)

const userAgent = "KmetijaMarosa-Storefront/1.0"

// Trace headers only go to the payment and mail APIs, never to image hosts we probe.
var tracePropagationTargets = []string{
	"api.stripe.com",
	"api.resend.com",
	"script.google.com",
}

// NewHTTPClient returns a traced client for outbound calls. A zero timeout leaves the
// client unbounded.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 8
	transport.ResponseHeaderTimeout = 15 * time.Second

	client := &http.Client{
		Transport: sentryhttpclient.NewSentryRoundTripper(
			userAgentTransport{base: transport},
			sentryhttpclient.WithTracePropagationTargets(tracePropagationTargets),
		),
	}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return client
}

// userAgentTransport sets a recognisable User-Agent; some image CDNs reject Go's default.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", userAgent)
	}
	return t.base.RoundTrip(req)
}
