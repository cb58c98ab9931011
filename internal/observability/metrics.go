package observability

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
)

type meterContextKey struct{}

// NewRequestMeter stores a meter carrying attrs on every emitted metric.
func NewRequestMeter(ctx context.Context, attrs ...attribute.Builder) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	meter := sentry.NewMeter(ctx).WithCtx(ctx)
	if len(attrs) > 0 {
		meter.SetAttributes(attrs...)
	}
	return context.WithValue(ctx, meterContextKey{}, meter)
}

// AddRequestAttributes tags the request meter in ctx in place. Outside a request it does nothing.
func AddRequestAttributes(ctx context.Context, attrs ...attribute.Builder) {
	if ctx == nil || len(attrs) == 0 {
		return
	}
	if meter, ok := ctx.Value(meterContextKey{}).(sentry.Meter); ok && meter != nil {
		meter.SetAttributes(attrs...)
	}
}

// MeterFromContext returns the request meter, or a bare one outside a request.
func MeterFromContext(ctx context.Context) sentry.Meter {
	if ctx == nil {
		ctx = context.Background()
	}
	if meter, ok := ctx.Value(meterContextKey{}).(sentry.Meter); ok && meter != nil {
		return meter.WithCtx(ctx)
	}
	return sentry.NewMeter(ctx).WithCtx(ctx)
}

// Count increments name by one on the request meter.
func Count(ctx context.Context, name string, attrs ...attribute.Builder) {
	meter := MeterFromContext(ctx)
	if len(attrs) == 0 {
		meter.Count(name, 1)
		return
	}
	meter.Count(name, 1, sentry.WithAttributes(attrs...))
}
