package logging

import (
	"context"
	"log/slog"

	"go.uber.org/multierr"
)

// MultiHandler writes each record to every handler that accepts its level. Nil handlers
// are skipped; with a single handler left it is returned as is.
func MultiHandler(handlers ...slog.Handler) slog.Handler {
	var fan fanout
	for _, handler := range handlers {
		if handler != nil {
			fan = append(fan, handler)
		}
	}
	switch len(fan) {
	case 0:
		return slog.DiscardHandler
	case 1:
		return fan[0]
	default:
		return fan
	}
}

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range f {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var err error
	for _, handler := range f {
		if handler.Enabled(ctx, record.Level) {
			// each handler gets its own copy; Sentry's handler retains attrs
			err = multierr.Append(err, handler.Handle(ctx, record.Clone()))
		}
	}
	return err
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	next := make(fanout, len(f))
	for i, handler := range f {
		next[i] = fn(handler)
	}
	return next
}
