package xlog

import (
	"context"
	"errors"
	"log/slog"
)

// MultiHandler fans each record out to all the given handlers.
func MultiHandler(handlers ...slog.Handler) slog.Handler {
	return multiHandler(handlers)
}

type multiHandler []slog.Handler

func (hs multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (hs multiHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range hs {
		if h.Enabled(ctx, record.Level) {
			errs = append(errs, h.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (hs multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(multiHandler, len(hs))
	for i, h := range hs {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (hs multiHandler) WithGroup(name string) slog.Handler {
	next := make(multiHandler, len(hs))
	for i, h := range hs {
		next[i] = h.WithGroup(name)
	}
	return next
}
