package grafx

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/grafx/backend"
	"github.com/gogpu/grafx/scheduler"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("grafx: invalid config")

// Config holds the startup settings of a Renderer and its App.
// It is immutable once the App or Renderer has been created.
type Config struct {
	// Title is the window title. Window implementations read it when they
	// create the native window; grafx itself only logs it.
	Title string

	// Width and Height are the logical size to create the window with.
	// The surface follows the Target's reported size, and falls back to
	// this size only while the Target reports none.
	Width  int
	Height int

	// RenderRate is the redraw frequency in Hz.
	RenderRate float64

	// TickRate is the simulation update frequency in Hz. Zero disables ticks.
	TickRate float64

	// MaxTicksPerStep caps how many ticks one scheduler step may report
	// after a stall. Zero means no cap.
	MaxTicksPerStep int

	// PresentMode is the requested surface present mode.
	PresentMode gputypes.PresentMode

	// Filter is the sampler filter for every sprite texture.
	Filter gputypes.FilterMode

	// ClearColor is the background every frame starts from.
	ClearColor gputypes.Color

	// Backend names the HAL backend, see package backend. Empty or "auto"
	// picks the best registered one.
	Backend string

	// MaxSurfaceRetries bounds how often a lost surface is reconfigured
	// within a single RenderFrame before the loss is reported.
	MaxSurfaceRetries int

	// MaxTextureSize caps decoded asset dimensions. Larger images are
	// downscaled. Zero means no cap.
	MaxTextureSize int

	// AssetCacheSize bounds, in bytes of decoded pixels, the cache Load
	// keeps of decoded images. Zero disables it.
	AssetCacheSize int64
}

// DefaultConfig returns the settings used when no options are given.
func DefaultConfig() Config {
	return Config{
		Title:             "Poprustica",
		Width:             1280,
		Height:            720,
		RenderRate:        60,
		TickRate:          30,
		PresentMode:       gputypes.PresentModeFifo,
		Filter:            gputypes.FilterModeNearest,
		ClearColor:        gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		Backend:           backend.Auto,
		MaxSurfaceRetries: 2,
		AssetCacheSize:    64 << 20,
	}
}

// Option configures a Config.
//
// Example:
//
//	r, err := grafx.NewRenderer(win,
//	    grafx.WithBackend("vulkan"),
//	    grafx.WithFilter(gputypes.FilterModeLinear),
//	)
type Option func(*Config)

// NewConfig applies opts over DefaultConfig and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting a Renderer cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.RenderRate <= 0:
		return fmt.Errorf("%w: render rate %v Hz", ErrInvalidConfig, c.RenderRate)
	case c.TickRate < 0:
		return fmt.Errorf("%w: tick rate %v Hz", ErrInvalidConfig, c.TickRate)
	case c.MaxTicksPerStep < 0:
		return fmt.Errorf("%w: max ticks per step %d", ErrInvalidConfig, c.MaxTicksPerStep)
	case c.MaxSurfaceRetries < 0:
		return fmt.Errorf("%w: max surface retries %d", ErrInvalidConfig, c.MaxSurfaceRetries)
	case c.MaxTextureSize < 0:
		return fmt.Errorf("%w: max texture size %d", ErrInvalidConfig, c.MaxTextureSize)
	case c.AssetCacheSize < 0:
		return fmt.Errorf("%w: asset cache size %d", ErrInvalidConfig, c.AssetCacheSize)
	}
	if scheduler.Interval(c.RenderRate) <= 0 {
		return fmt.Errorf("%w: render rate %v Hz is too high", ErrInvalidConfig, c.RenderRate)
	}
	return nil
}

// intervals converts the configured rates into scheduler intervals.
// A zero tick rate yields a zero tick interval, which disables ticks.
func (c Config) intervals() (render, tick time.Duration) {
	return scheduler.Interval(c.RenderRate), scheduler.Interval(c.TickRate)
}

// WithTitle sets the window title.
func WithTitle(title string) Option {
	return func(c *Config) { c.Title = title }
}

// WithSize sets the logical size the window is created with.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithRenderRate sets the redraw frequency in Hz.
func WithRenderRate(hz float64) Option {
	return func(c *Config) { c.RenderRate = hz }
}

// WithTickRate sets the update frequency in Hz. Zero disables ticks.
func WithTickRate(hz float64) Option {
	return func(c *Config) { c.TickRate = hz }
}

// WithMaxTicksPerStep caps tick catch-up after a stall.
func WithMaxTicksPerStep(n int) Option {
	return func(c *Config) { c.MaxTicksPerStep = n }
}

// WithPresentMode requests a surface present mode. Unsupported modes fall
// back to the first one the surface offers.
func WithPresentMode(mode gputypes.PresentMode) Option {
	return func(c *Config) { c.PresentMode = mode }
}

// WithFilter sets the texture sampling filter.
func WithFilter(filter gputypes.FilterMode) Option {
	return func(c *Config) { c.Filter = filter }
}

// WithClearColor sets the frame background.
func WithClearColor(color gputypes.Color) Option {
	return func(c *Config) { c.ClearColor = color }
}

// WithBackend selects a HAL backend by name.
func WithBackend(name string) Option {
	return func(c *Config) { c.Backend = name }
}

// WithMaxSurfaceRetries bounds surface-lost recovery per frame.
func WithMaxSurfaceRetries(n int) Option {
	return func(c *Config) { c.MaxSurfaceRetries = n }
}

// WithMaxTextureSize caps decoded asset dimensions.
func WithMaxTextureSize(n int) Option {
	return func(c *Config) { c.MaxTextureSize = n }
}

// WithAssetCacheSize bounds the decoded-image cache in bytes. Zero
// disables it.
func WithAssetCacheSize(bytes int64) Option {
	return func(c *Config) { c.AssetCacheSize = bytes }
}
