// Package grafx is a small real-time rendering shell built on gogpu/wgpu.
//
// # Overview
//
// grafx owns a GPU device and window surface, a single sprite pipeline, and
// two registries: textures keyed by name and sprites that refer to a
// texture by key. Every sprite is an opaque full-screen quad. A frame
// clears the surface, draws each visible sprite in key order and presents.
//
// # Quick Start
//
//	app, err := grafx.NewApp(window, grafx.WithBackend("vulkan"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer app.Close()
//
//	r := app.Renderer()
//	r.AddTexture("sky", pixels, 2, 2)
//	r.AddSprite("background", "sky")
//
//	err = app.Run(ctx)
//
// # Frame Pacing
//
// App steps a [scheduler.Scheduler] with two independent cadences, redraw
// (60 Hz by default) and update ticks (30 Hz). Both advance by whole
// intervals, so neither drifts, and the loop sleeps in Window.WaitUntil
// until the earlier of the two is due.
//
// # Errors
//
// Initialization failures ([ErrInitialization]) abort startup. Per-frame
// problems never stop the loop: a sprite whose texture is missing is
// skipped and reported by [Renderer.LastFrame]. RenderFrame fails only
// when no visible sprite could be drawn ([ErrEmptyFrame]), and
// [ErrSurfaceTimeout] just skips the frame. A surface that stays lost after MaxSurfaceRetries
// reconfigurations is fatal. [IsFatal] tells the two apart.
//
// # Logging
//
// grafx is silent by default. Pass a [log/slog.Logger] to [SetLogger] to
// see lifecycle events, absorbed failures and per-frame detail.
package grafx
