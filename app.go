package grafx

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/grafx/scheduler"
)

// App drives a Renderer from a Window: it paces redraws and update ticks
// with a scheduler, forwards resizes to the surface, and tracks input.
//
// An App runs on one goroutine. Call runtime.LockOSThread before Run when
// the windowing layer requires the main thread.
type App struct {
	cfg      Config
	win      Window
	renderer *Renderer
	input    Input
	now      func() time.Time

	onTick func(step time.Duration)

	sched     *scheduler.Scheduler
	closing   bool
	minimized bool
	err       error

	frames       uint64
	ticks        uint64
	droppedTicks uint64
}

// NewApp creates the Renderer for win and wires the window callbacks.
func NewApp(win Window, opts ...Option) (*App, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	r, err := newRenderer(win, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, win: win, renderer: r, now: time.Now}
	win.OnCloseRequest(a.requestClose)
	win.OnRedraw(a.redraw)
	win.OnResize(a.resize)
	win.OnMouseMove(a.input.move)
	win.OnMousePress(func(b gpucontext.MouseButton, x, y float64) { a.button(b, "pressed") })
	win.OnMouseRelease(func(b gpucontext.MouseButton, x, y float64) { a.button(b, "released") })
	return a, nil
}

// Renderer returns the App's renderer, for loading assets and managing
// sprites between frames.
func (a *App) Renderer() *Renderer { return a.renderer }

// Input returns the pointer state.
func (a *App) Input() *Input { return &a.input }

// OnTick registers the fixed-step update. It is called once per elapsed
// tick interval with that interval.
func (a *App) OnTick(fn func(step time.Duration)) { a.onTick = fn }

// Frames returns the number of RenderFrame calls made so far.
func (a *App) Frames() uint64 { return a.frames }

// Ticks returns the number of update ticks run and skipped so far.
func (a *App) Ticks() (run, dropped uint64) { return a.ticks, a.droppedTicks }

// Run loops until the window is closed, ctx is cancelled or a frame fails
// fatally. Each iteration steps the scheduler, runs due ticks, requests at
// most one redraw and waits for events or the next deadline.
func (a *App) Run(ctx context.Context) error {
	renderInterval, tickInterval := a.cfg.intervals()
	sched, err := scheduler.New(renderInterval, tickInterval, a.now(),
		scheduler.WithMaxTicksPerStep(a.cfg.MaxTicksPerStep))
	if err != nil {
		return fmt.Errorf("grafx: %w", err)
	}
	a.sched = sched

	Logger().Info("grafx: loop started",
		"title", a.cfg.Title,
		"render_interval", renderInterval,
		"tick_interval", tickInterval,
	)

	for !a.closing {
		if err := ctx.Err(); err != nil {
			return err
		}

		d := a.sched.Step(a.now())
		a.tick(d)
		if d.Redraw() && !a.minimized {
			a.win.RequestRedraw()
		}

		if err := a.win.WaitUntil(d.Deadline); err != nil {
			return fmt.Errorf("grafx: window: %w", err)
		}
	}

	Logger().Info("grafx: loop stopped", "frames", a.frames, "ticks", a.ticks)
	return a.err
}

// Close releases the renderer.
func (a *App) Close() error { return a.renderer.Close() }

func (a *App) tick(d scheduler.Decision) {
	if d.DroppedTicks > 0 {
		a.droppedTicks += uint64(d.DroppedTicks)
		Logger().Warn("grafx: ticks dropped", "count", d.DroppedTicks)
	}
	for range d.Ticks {
		a.ticks++
		if a.onTick != nil {
			a.onTick(a.sched.TickInterval())
		}
	}
}

func (a *App) requestClose() {
	Logger().Info("grafx: close requested")
	a.closing = true
}

func (a *App) redraw() {
	if a.closing || a.minimized {
		return
	}
	a.frames++
	err := a.renderer.RenderFrame()
	switch {
	case err == nil:
	case IsFatal(err):
		Logger().Error("grafx: frame failed", "err", err)
		a.err = err
		a.closing = true
	default:
		Logger().Warn("grafx: frame degraded", "err", err)
	}
}

// resize reconfigures the surface synchronously, before the next redraw.
// A zero size means the window is minimized; rendering pauses until it
// has an area again.
func (a *App) resize(width, height int) {
	scale := a.win.ScaleFactor()
	if scale <= 0 {
		scale = 1
	}
	pw, ph := toPixels(width, scale), toPixels(height, scale)
	if pw == 0 || ph == 0 {
		a.minimized = true
		Logger().Debug("grafx: window minimized")
		return
	}
	a.minimized = false
	if err := a.renderer.Resize(pw, ph); err != nil {
		Logger().Warn("grafx: resize failed", "width", pw, "height", ph, "err", err)
	}
}

func (a *App) button(b gpucontext.MouseButton, action string) {
	name, ok := buttonName(b)
	if !ok {
		return
	}
	x, y := a.input.Cursor()
	Logger().Info("grafx: mouse button "+action, "button", name, "x", x, "y", y)
}
