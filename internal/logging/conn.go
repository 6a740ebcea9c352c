package logging

import (
	"context"
	"fmt"
	"log/slog"
)

type connKey struct{}

// WithConnectionID returns a new context carrying the given connection id.
func WithConnectionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, connKey{}, id)
}

// ConnectionID extracts the connection id from ctx, returning ("", false) if
// not present.
func ConnectionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(connKey{}).(string)
	return id, ok && id != ""
}

// ConnHandler wraps an existing slog.Handler to automatically inject a
// "connection_id" attribute when the context carries one.
type ConnHandler struct {
	inner slog.Handler
}

// NewConnHandler creates a connection-aware handler wrapping the given handler.
func NewConnHandler(inner slog.Handler) *ConnHandler {
	return &ConnHandler{inner: inner}
}

func (h *ConnHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ConnHandler) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := ConnectionID(ctx); ok {
		r.AddAttrs(slog.String("connection_id", id))
	}
	if err := h.inner.Handle(ctx, r); err != nil {
		return fmt.Errorf("connection handler: %w", err)
	}
	return nil
}

func (h *ConnHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ConnHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ConnHandler) WithGroup(name string) slog.Handler {
	return &ConnHandler{inner: h.inner.WithGroup(name)}
}
