package logging

import (
	"context"
	"log/slog"
)

// AttrsFunc returns attributes evaluated per record, such as the current
// session id or the number of commands seen so far.
type AttrsFunc func() []slog.Attr

// ContextHandler appends dynamic attributes to each record before
// delegating.
type ContextHandler struct {
	inner slog.Handler
	attrs AttrsFunc
}

// NewContextHandler wraps inner.
func NewContextHandler(inner slog.Handler, attrs AttrsFunc) *ContextHandler {
	return &ContextHandler{inner: inner, attrs: attrs}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.attrs != nil {
		r.AddAttrs(h.attrs()...)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), attrs: h.attrs}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), attrs: h.attrs}
}
