package grafx

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
)

// TestDefaultConfig checks the startup defaults.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Title != "Poprustica" {
		t.Errorf("Title = %q, want Poprustica", cfg.Title)
	}
	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("size = %dx%d, want 1280x720", cfg.Width, cfg.Height)
	}
	if cfg.RenderRate != 60 || cfg.TickRate != 30 {
		t.Errorf("rates = %v/%v, want 60/30", cfg.RenderRate, cfg.TickRate)
	}
	if cfg.PresentMode != gputypes.PresentModeFifo {
		t.Errorf("PresentMode = %v, want Fifo", cfg.PresentMode)
	}
	if cfg.Filter != gputypes.FilterModeNearest {
		t.Errorf("Filter = %v, want nearest", cfg.Filter)
	}
	if cfg.ClearColor != (gputypes.Color{A: 1}) {
		t.Errorf("ClearColor = %+v, want opaque black", cfg.ClearColor)
	}
	if cfg.MaxSurfaceRetries != 2 {
		t.Errorf("MaxSurfaceRetries = %d, want 2", cfg.MaxSurfaceRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

// TestOptionsApply checks that every option reaches the config.
func TestOptionsApply(t *testing.T) {
	red := gputypes.Color{R: 1, A: 1}
	cfg, err := NewConfig(
		WithTitle("demo"),
		WithSize(640, 480),
		WithRenderRate(120),
		WithTickRate(0),
		WithMaxTicksPerStep(5),
		WithPresentMode(gputypes.PresentModeMailbox),
		WithFilter(gputypes.FilterModeLinear),
		WithClearColor(red),
		WithBackend("noop"),
		WithMaxSurfaceRetries(4),
		WithMaxTextureSize(1024),
		WithAssetCacheSize(1 << 20),
	)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}

	want := Config{
		Title:             "demo",
		Width:             640,
		Height:            480,
		RenderRate:        120,
		TickRate:          0,
		MaxTicksPerStep:   5,
		PresentMode:       gputypes.PresentModeMailbox,
		Filter:            gputypes.FilterModeLinear,
		ClearColor:        red,
		Backend:           "noop",
		MaxSurfaceRetries: 4,
		MaxTextureSize:    1024,
		AssetCacheSize:    1 << 20,
	}
	if cfg != want {
		t.Errorf("config = %+v\nwant %+v", cfg, want)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero width", WithSize(0, 720)},
		{"negative height", WithSize(1280, -1)},
		{"zero render rate", WithRenderRate(0)},
		{"negative render rate", WithRenderRate(-60)},
		{"absurd render rate", WithRenderRate(1e12)},
		{"negative tick rate", WithTickRate(-1)},
		{"negative tick cap", WithMaxTicksPerStep(-1)},
		{"negative retries", WithMaxSurfaceRetries(-1)},
		{"negative texture size", WithMaxTextureSize(-8)},
		{"negative asset cache", WithAssetCacheSize(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.opt)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("NewConfig error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfigIntervals(t *testing.T) {
	cfg := DefaultConfig()
	render, tick := cfg.intervals()
	if want := time.Second / 60; render != want {
		t.Errorf("render interval = %v, want %v", render, want)
	}
	if want := time.Second / 30; tick != want {
		t.Errorf("tick interval = %v, want %v", tick, want)
	}

	cfg.TickRate = 0
	if _, tick := cfg.intervals(); tick != 0 {
		t.Errorf("disabled tick interval = %v, want 0", tick)
	}
}
