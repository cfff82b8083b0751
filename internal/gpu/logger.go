package gpu

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler drops every record; Enabled is false so callers skip
// formatting.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var current atomic.Pointer[slog.Logger]

func init() { current.Store(slog.New(nopHandler{})) }

// slogger returns the logger for device, surface and resource events.
func slogger() *slog.Logger { return current.Load() }

// SetLogger installs l for the GPU layer, tagging its records with
// component=gpu. A nil logger silences the layer again.
func SetLogger(l *slog.Logger) {
	if l == nil {
		current.Store(slog.New(nopHandler{}))
		return
	}
	current.Store(l.With("component", "gpu"))
}
