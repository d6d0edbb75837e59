package logging

import (
	"context"
	"log/slog"
)

// Stamper supplies the flight session attributes (session id, aircraft,
// tick, destroyed, override). *session.Context implements it.
type Stamper interface {
	LogAttrs() []slog.Attr
}

// SessionHandler stamps every record with the current session state.
// Keys the caller already set, on the record or through With, are kept
// as written. After WithGroup the stamp lands inside the group.
type SessionHandler struct {
	inner   slog.Handler
	stamper Stamper
	bound   map[string]bool
}

func NewSessionHandler(inner slog.Handler, s Stamper) *SessionHandler {
	return &SessionHandler{inner: inner, stamper: s}
}

func (h *SessionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *SessionHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.stamper == nil {
		return h.inner.Handle(ctx, r)
	}
	set := make(map[string]bool, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		set[a.Key] = true
		return true
	})
	for _, a := range h.stamper.LogAttrs() {
		if !set[a.Key] && !h.bound[a.Key] {
			r.AddAttrs(a)
		}
	}
	return h.inner.Handle(ctx, r)
}

func (h *SessionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make(map[string]bool, len(h.bound)+len(attrs))
	for k := range h.bound {
		bound[k] = true
	}
	for _, a := range attrs {
		bound[a.Key] = true
	}
	return &SessionHandler{
		inner:   h.inner.WithAttrs(attrs),
		stamper: h.stamper,
		bound:   bound,
	}
}

func (h *SessionHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &SessionHandler{
		inner:   h.inner.WithGroup(name),
		stamper: h.stamper,
		bound:   h.bound,
	}
}
