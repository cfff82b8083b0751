package grafx

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/grafx/internal/gputest"
	"github.com/gogpu/wgpu/hal"
)

// fakeWindow is a scripted Window driven by a fake clock. WaitUntil jumps
// the clock to the deadline, runs any events due by then and delivers a
// pending redraw.
type fakeWindow struct {
	gpucontext.NullEventSource

	w, h  int
	scale float64
	clock time.Time

	redrawRequested bool
	redrawRequests  int
	waits           []time.Time

	// script runs before each WaitUntil returns, with the wait count.
	script func(fw *fakeWindow, wait int)

	onClose   func()
	onRedraw  func()
	onResize  func(w, h int)
	onMove    func(x, y float64)
	onPress   func(b gpucontext.MouseButton, x, y float64)
	onRelease func(b gpucontext.MouseButton, x, y float64)
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{w: 1280, h: 720, scale: 1, clock: time.Unix(1000, 0)}
}

func (fw *fakeWindow) Size() (int, int)                 { return fw.w, fw.h }
func (fw *fakeWindow) ScaleFactor() float64             { return fw.scale }
func (fw *fakeWindow) NativeHandle() (uintptr, uintptr) { return 0, 0 }
func (fw *fakeWindow) OnCloseRequest(fn func())         { fw.onClose = fn }
func (fw *fakeWindow) OnRedraw(fn func())               { fw.onRedraw = fn }
func (fw *fakeWindow) OnResize(fn func(int, int))       { fw.onResize = fn }
func (fw *fakeWindow) OnMouseMove(fn func(float64, float64)) {
	fw.onMove = fn
}
func (fw *fakeWindow) OnMousePress(fn func(gpucontext.MouseButton, float64, float64)) {
	fw.onPress = fn
}
func (fw *fakeWindow) OnMouseRelease(fn func(gpucontext.MouseButton, float64, float64)) {
	fw.onRelease = fn
}

func (fw *fakeWindow) RequestRedraw() {
	fw.redrawRequests++
	fw.redrawRequested = true
}

func (fw *fakeWindow) WaitUntil(deadline time.Time) error {
	fw.waits = append(fw.waits, deadline)
	if deadline.After(fw.clock) {
		fw.clock = deadline
	}
	if fw.script != nil {
		fw.script(fw, len(fw.waits))
	}
	if fw.redrawRequested {
		fw.redrawRequested = false
		fw.onRedraw()
	}
	return nil
}

func (fw *fakeWindow) now() time.Time { return fw.clock }

func newTestApp(t *testing.T, fw *fakeWindow, opts ...Option) (*App, *gputest.Recorder) {
	t.Helper()
	name, rec := registerTestBackend(t)
	app, err := NewApp(fw, append([]Option{WithBackend(name)}, opts...)...)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	app.now = fw.now
	t.Cleanup(func() { _ = app.Close() })
	return app, rec
}

// closeAfter closes the window after n waits.
func closeAfter(n int) func(*fakeWindow, int) {
	return func(fw *fakeWindow, wait int) {
		if wait == n {
			fw.onClose()
		}
	}
}

func TestAppRunPacing(t *testing.T) {
	fw := newFakeWindow()
	start := fw.clock
	fw.script = closeAfter(120)
	app, rec := newTestApp(t, fw)

	var ticks int
	var step time.Duration
	app.OnTick(func(d time.Duration) {
		ticks++
		step = d
	})

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Each redraw is delivered one wait after it is requested, and the
	// final one is dropped by the close.
	elapsed := fw.clock.Sub(start)
	wantFrames := int(elapsed / (time.Second / 60))
	if f := int(app.Frames()); f < wantFrames-2 || f > wantFrames {
		t.Errorf("frames = %d over %v, want about %d", f, elapsed, wantFrames)
	}
	wantTicks := int(elapsed / (time.Second / 30))
	if ticks < wantTicks-1 || ticks > wantTicks {
		t.Errorf("ticks = %d over %v, want about %d", ticks, elapsed, wantTicks)
	}
	if step != time.Second/30 {
		t.Errorf("tick step = %v, want %v", step, time.Second/30)
	}
	if rec.Presents != int(app.Frames()) {
		t.Errorf("presents = %d, frames = %d", rec.Presents, app.Frames())
	}
	for i := 1; i < len(fw.waits); i++ {
		if fw.waits[i].Before(fw.waits[i-1]) {
			t.Fatalf("deadline %d moved backward: %v < %v", i, fw.waits[i], fw.waits[i-1])
		}
	}
}

func TestAppTicksDisabled(t *testing.T) {
	fw := newFakeWindow()
	fw.script = closeAfter(30)
	app, _ := newTestApp(t, fw, WithTickRate(0))

	called := false
	app.OnTick(func(time.Duration) { called = true })

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if called {
		t.Error("tick ran with ticks disabled")
	}
	if app.Frames() < 27 {
		t.Errorf("frames = %d, want 28", app.Frames())
	}
}

func TestAppStallDropsTicks(t *testing.T) {
	fw := newFakeWindow()
	fw.script = func(fw *fakeWindow, wait int) {
		switch wait {
		case 1:
			fw.clock = fw.clock.Add(time.Second)
		case 3:
			fw.onClose()
		}
	}
	app, _ := newTestApp(t, fw, WithMaxTicksPerStep(4))

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	run, dropped := app.Ticks()
	if dropped == 0 {
		t.Errorf("no ticks dropped after a one second stall (run %d)", run)
	}
	if run > 4+2 {
		t.Errorf("ran %d ticks, cap is 4 per step", run)
	}
}

func TestAppResize(t *testing.T) {
	fw := newFakeWindow()
	fw.scale = 2
	fw.w, fw.h = 640, 360
	fw.script = func(fw *fakeWindow, wait int) {
		switch wait {
		case 2:
			fw.w, fw.h = 400, 300
			fw.onResize(400, 300)
		case 4:
			fw.onClose()
		}
	}
	app, rec := newTestApp(t, fw)

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if w, h := app.Renderer().SurfaceSize(); w != 800 || h != 600 {
		t.Errorf("surface = %dx%d, want 800x600", w, h)
	}
	if last := rec.LastConfig(); last.Width != 800 || last.Height != 600 {
		t.Errorf("last configure = %dx%d, want 800x600", last.Width, last.Height)
	}
}

func TestAppMinimizedSkipsRedraw(t *testing.T) {
	fw := newFakeWindow()
	fw.script = func(fw *fakeWindow, wait int) {
		switch wait {
		case 1:
			fw.onResize(0, 0)
		case 10:
			fw.onClose()
		}
	}
	app, _ := newTestApp(t, fw)

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if app.Frames() > 1 {
		t.Errorf("frames = %d while minimized", app.Frames())
	}
}

func TestAppFatalFrameStops(t *testing.T) {
	fw := newFakeWindow()
	app, rec := newTestApp(t, fw, WithMaxSurfaceRetries(0))
	rec.AcquireErrors = []error{hal.ErrSurfaceLost}

	err := app.Run(context.Background())

	if !errors.Is(err, ErrSurfaceLost) {
		t.Errorf("Run error = %v, want ErrSurfaceLost", err)
	}
	if app.Frames() != 1 {
		t.Errorf("frames = %d, want 1", app.Frames())
	}
}

func TestAppDegradedFrameContinues(t *testing.T) {
	tests := []struct {
		name      string
		drawable  bool
		wantDraws bool
	}{
		{"all missing", false, false},
		{"partly missing", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fw := newFakeWindow()
			fw.script = closeAfter(5)
			app, rec := newTestApp(t, fw)
			r := app.Renderer()
			if tt.drawable {
				mustAddTexture(t, r, "sky")
				mustAddSprite(t, r, "bg", "sky")
			}
			mustAddSprite(t, r, "orphan", "nothing")

			if err := app.Run(context.Background()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if app.Frames() < 3 || rec.Presents != int(app.Frames()) {
				t.Errorf("frames = %d, presents = %d", app.Frames(), rec.Presents)
			}
			if got := rec.Draws > 0; got != tt.wantDraws {
				t.Errorf("draws = %d", rec.Draws)
			}
			fe := r.LastFrame()
			if fe == nil || len(fe.Missing) != 1 || fe.Missing[0].Sprite != "orphan" {
				t.Errorf("LastFrame() = %v, want orphan missing", fe)
			}
		})
	}
}

func TestAppContextCancel(t *testing.T) {
	fw := newFakeWindow()
	ctx, cancel := context.WithCancel(context.Background())
	fw.script = func(_ *fakeWindow, wait int) {
		if wait == 3 {
			cancel()
		}
	}
	app, _ := newTestApp(t, fw)

	if err := app.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}

func TestAppInputAndButtons(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	t.Cleanup(func() { SetLogger(nil) })

	fw := newFakeWindow()
	fw.script = func(fw *fakeWindow, wait int) {
		switch wait {
		case 1:
			fw.onMove(12.5, 40)
			fw.onPress(gpucontext.MouseButtonLeft, 12.5, 40)
			fw.onRelease(gpucontext.MouseButtonLeft, 12.5, 40)
			fw.onPress(gpucontext.MouseButtonMiddle, 12.5, 40)
			fw.onMove(100, 200)
			fw.onPress(gpucontext.MouseButtonRight, 100, 200)
		case 2:
			fw.onClose()
		}
	}
	app, _ := newTestApp(t, fw)

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if x, y := app.Input().Cursor(); x != 100 || y != 200 {
		t.Errorf("cursor = (%v, %v), want (100, 200)", x, y)
	}
	out := buf.String()
	for _, want := range []string{
		"mouse button pressed\" button=left x=12.5 y=40",
		"mouse button released\" button=left",
		"mouse button pressed\" button=right x=100 y=200",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "button=middle") || strings.Count(out, "mouse button") != 3 {
		t.Errorf("unexpected button logs:\n%s", out)
	}
}
