// Command grafxdemo runs the grafx render loop in a headless window.
//
// It loads a manifest when one is given, otherwise a generated checker
// texture, and renders until -duration elapses or the process is
// interrupted. Native backends need a native window handle, which a
// headless window cannot provide, so the default backend is noop.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gogpu/grafx"
	"github.com/gogpu/grafx/backend"
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

func main() {
	var (
		width    = flag.Int("width", 1280, "window width")
		height   = flag.Int("height", 720, "window height")
		fps      = flag.Float64("fps", 60, "render rate in Hz")
		tps      = flag.Float64("tps", 30, "tick rate in Hz, 0 disables ticks")
		backendF = flag.String("backend", backend.Noop, "HAL backend (auto, vulkan, metal, dx12, gles, noop)")
		manifest = flag.String("manifest", "", "asset manifest (JSON) to load")
		duration = flag.Duration("duration", 3*time.Second, "how long to run")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	grafx.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Window systems expect their event loop on the main thread.
	runtime.LockOSThread()

	log.Printf("available backends: %v", backend.Available())

	opts := []grafx.Option{
		grafx.WithSize(*width, *height),
		grafx.WithRenderRate(*fps),
		grafx.WithTickRate(*tps),
		grafx.WithBackend(*backendF),
	}
	cfg, err := grafx.NewConfig(opts...)
	if err != nil {
		log.Fatalf("grafxdemo: %v", err)
	}

	win := newHeadlessWindow(cfg, *duration)
	app, err := grafx.NewApp(win, opts...)
	if err != nil {
		log.Fatalf("grafxdemo: %v", err)
	}
	defer app.Close()

	if err := load(app.Renderer(), *manifest); err != nil {
		log.Printf("grafxdemo: some assets failed to load: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("grafxdemo: %v", err)
	}

	run, dropped := app.Ticks()
	log.Printf("rendered %d frames, ran %d ticks (%d dropped)", app.Frames(), run, dropped)
}

func load(r *grafx.Renderer, manifest string) error {
	if manifest == "" {
		if err := r.AddTexture("checker", checker(8, 8), 8, 8); err != nil {
			return err
		}
		return r.AddSprite("background", "checker")
	}

	dir, name := filepath.Split(manifest)
	fsys := os.DirFS(filepath.Clean(dir))
	m, err := grafx.ReadManifest(fsys, name)
	if err != nil {
		return err
	}
	return r.Load(nil, fsys, m)
}

// checker returns a w*h two-tone RGBA8 checkerboard.
func checker(w, h int) []byte {
	pix := make([]byte, 0, w*h*4)
	for y := range h {
		for x := range w {
			if (x+y)%2 == 0 {
				pix = append(pix, 0xE0, 0x6C, 0x3C, 0xFF)
			} else {
				pix = append(pix, 0x1E, 0x2A, 0x38, 0xFF)
			}
		}
	}
	return pix
}
