package main

import (
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/grafx"
)

// headlessWindow is a grafx.Window without a native surface. It sleeps
// until each deadline, delivers requested redraws and asks to close once
// its lifetime is over.
type headlessWindow struct {
	gpucontext.NullEventSource

	width, height int
	closeAt       time.Time

	redraw   bool
	onRedraw func()
	onClose  func()
}

// newHeadlessWindow opens a window the way a native window layer would:
// titled and sized from cfg.
func newHeadlessWindow(cfg grafx.Config, lifetime time.Duration) *headlessWindow {
	grafx.Logger().Info("grafxdemo: window created", "title", cfg.Title, "width", cfg.Width, "height", cfg.Height)
	return &headlessWindow{
		width:   cfg.Width,
		height:  cfg.Height,
		closeAt: time.Now().Add(lifetime),
	}
}

func (w *headlessWindow) Size() (int, int)                 { return w.width, w.height }
func (w *headlessWindow) ScaleFactor() float64             { return 1 }
func (w *headlessWindow) NativeHandle() (uintptr, uintptr) { return 0, 0 }
func (w *headlessWindow) RequestRedraw()                   { w.redraw = true }
func (w *headlessWindow) OnRedraw(fn func())               { w.onRedraw = fn }
func (w *headlessWindow) OnCloseRequest(fn func())         { w.onClose = fn }

func (w *headlessWindow) WaitUntil(deadline time.Time) error {
	if d := time.Until(deadline); d > 0 {
		time.Sleep(d)
	}
	if !time.Now().Before(w.closeAt) && w.onClose != nil {
		w.onClose()
		return nil
	}
	if w.redraw && w.onRedraw != nil {
		w.redraw = false
		w.onRedraw()
	}
	return nil
}
