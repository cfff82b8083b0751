package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DefaultFrameLatency is the frame-latency hint recorded in every
// SurfaceConfig. hal.SurfaceConfiguration has no latency field, so the
// hint is informational; the backend picks its own swapchain depth.
const DefaultFrameLatency = 2

// SurfaceConfig is the active presentation configuration of a Context.
// A Context never edits its config in place; Reconfigure builds a new one.
type SurfaceConfig struct {
	Format       gputypes.TextureFormat
	Width        uint32
	Height       uint32
	PresentMode  gputypes.PresentMode
	AlphaMode    gputypes.CompositeAlphaMode

	// FrameLatency is reported for diagnostics only; it does not reach
	// the surface.
	FrameLatency uint32
}

// ContextDescriptor describes how to open a Context.
type ContextDescriptor struct {
	// Backend creates the instance. Required.
	Backend hal.Backend

	// Display and Window are the platform handles the surface is created
	// from. The noop backend ignores them.
	Display uintptr
	Window  uintptr

	// Width and Height are the window's physical pixel size.
	Width  uint32
	Height uint32

	// PresentMode is the requested present mode. If the surface does not
	// offer it, the first supported mode is used instead.
	PresentMode gputypes.PresentMode
}

// Context owns the device, its submission queue and the window surface.
type Context struct {
	instance hal.Instance
	adapter  hal.Adapter
	info     gputypes.AdapterInfo
	device   hal.Device
	queue    hal.Queue
	surface  hal.Surface
	caps     *hal.SurfaceCapabilities
	config   SurfaceConfig
}

// NewContext creates an instance from desc.Backend, picks an adapter able to
// present to the window surface, opens a device and configures the surface.
//
// Every failure is reported as ErrInitialization; the caller cannot render
// without a Context.
func NewContext(desc *ContextDescriptor) (*Context, error) {
	if desc == nil || desc.Backend == nil {
		return nil, fmt.Errorf("%w: no backend", ErrInitialization)
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: surface %dx%d: %w", ErrInitialization, desc.Width, desc.Height, hal.ErrZeroArea)
	}

	c := &Context{}
	if err := c.init(desc); err != nil {
		c.Destroy()
		return nil, err
	}
	return c, nil
}

func (c *Context) init(desc *ContextDescriptor) error {
	instance, err := desc.Backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("%w: create %s instance: %w", ErrInitialization, desc.Backend.Variant(), err)
	}
	c.instance = instance

	surface, err := instance.CreateSurface(desc.Display, desc.Window)
	if err != nil {
		return fmt.Errorf("%w: create surface: %w", ErrInitialization, err)
	}
	c.surface = surface

	selected, caps := selectAdapter(instance.EnumerateAdapters(surface), surface)
	if selected == nil {
		return fmt.Errorf("%w: no adapter can present to the surface", ErrInitialization)
	}
	c.adapter = selected.Adapter
	c.info = selected.Info
	c.caps = caps

	slogger().Info("grafx: adapter selected",
		"name", selected.Info.Name,
		"vendor", selected.Info.Vendor,
		"type", selected.Info.DeviceType,
		"backend", selected.Info.Backend,
	)

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("%w: open device: %w", ErrInitialization, err)
	}
	c.device = openDev.Device
	c.queue = openDev.Queue

	cfg := SurfaceConfig{
		Format:       chooseFormat(caps.Formats),
		Width:        desc.Width,
		Height:       desc.Height,
		PresentMode:  choosePresentMode(caps.PresentModes, desc.PresentMode),
		AlphaMode:    chooseAlphaMode(caps.AlphaModes),
		FrameLatency: DefaultFrameLatency,
	}
	if err := c.configure(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	slogger().Info("grafx: surface configured",
		"format", cfg.Format,
		"width", cfg.Width,
		"height", cfg.Height,
		"present_mode", cfg.PresentMode,
	)
	return nil
}

// selectAdapter prefers a discrete GPU, then an integrated one, then any
// adapter that reports at least one surface format.
func selectAdapter(adapters []hal.ExposedAdapter, surface hal.Surface) (*hal.ExposedAdapter, *hal.SurfaceCapabilities) {
	var (
		best     *hal.ExposedAdapter
		bestCaps *hal.SurfaceCapabilities
		bestRank = -1
	)
	for i := range adapters {
		caps := adapters[i].Adapter.SurfaceCapabilities(surface)
		if caps == nil || len(caps.Formats) == 0 {
			continue
		}
		rank := 0
		switch adapters[i].Info.DeviceType {
		case gputypes.DeviceTypeDiscreteGPU:
			rank = 2
		case gputypes.DeviceTypeIntegratedGPU:
			rank = 1
		}
		if rank > bestRank {
			best, bestCaps, bestRank = &adapters[i], caps, rank
		}
	}
	return best, bestCaps
}

// chooseFormat returns the first sRGB format, else the first format.
func chooseFormat(formats []gputypes.TextureFormat) gputypes.TextureFormat {
	for _, f := range formats {
		if f.IsSrgb() {
			return f
		}
	}
	return formats[0]
}

func choosePresentMode(modes []gputypes.PresentMode, want gputypes.PresentMode) gputypes.PresentMode {
	for _, m := range modes {
		if m == want {
			return want
		}
	}
	if len(modes) == 0 {
		return gputypes.PresentModeFifo
	}
	return modes[0]
}

func chooseAlphaMode(modes []gputypes.CompositeAlphaMode) gputypes.CompositeAlphaMode {
	for _, m := range modes {
		if m == gputypes.CompositeAlphaModeOpaque {
			return m
		}
	}
	if len(modes) == 0 {
		return gputypes.CompositeAlphaModeOpaque
	}
	return modes[0]
}

// configure applies cfg to the surface and, on success, makes it the active
// configuration.
func (c *Context) configure(cfg SurfaceConfig) error {
	err := c.surface.Configure(c.device, &hal.SurfaceConfiguration{
		Width:       cfg.Width,
		Height:      cfg.Height,
		Format:      cfg.Format,
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: cfg.PresentMode,
		AlphaMode:   cfg.AlphaMode,
	})
	if err != nil {
		return fmt.Errorf("configure surface %dx%d: %w", cfg.Width, cfg.Height, err)
	}
	c.config = cfg
	return nil
}

// Reconfigure resizes the surface. It must be called after every window
// size change and before the next AcquireFrame.
func (c *Context) Reconfigure(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("grafx: reconfigure %dx%d: %w", width, height, hal.ErrZeroArea)
	}
	next := c.config
	next.Width = width
	next.Height = height
	if err := c.configure(next); err != nil {
		return fmt.Errorf("grafx: %w", err)
	}
	slogger().Debug("grafx: surface reconfigured", "width", width, "height", height)
	return nil
}

// Config returns the active surface configuration.
func (c *Context) Config() SurfaceConfig { return c.config }

// Device returns the logical device.
func (c *Context) Device() hal.Device { return c.device }

// Queue returns the submission queue.
func (c *Context) Queue() hal.Queue { return c.queue }

// AdapterInfo describes the selected adapter.
func (c *Context) AdapterInfo() gputypes.AdapterInfo { return c.info }

// Frame is a presentable surface image acquired for one render pass.
type Frame struct {
	texture hal.SurfaceTexture
	view    hal.TextureView

	// Suboptimal reports that the surface still works but no longer
	// matches the window exactly. A reconfigure is advisable.
	Suboptimal bool
}

// View returns the render-attachment view of the frame image.
func (f *Frame) View() hal.TextureView { return f.view }

// AcquireFrame blocks until the surface hands out a presentable image.
// Lost and outdated surfaces are reported as ErrSurfaceLost, timeouts as
// ErrSurfaceTimeout.
func (c *Context) AcquireFrame() (*Frame, error) {
	acquired, err := c.surface.AcquireTexture(nil)
	if err != nil {
		return nil, surfaceError("acquire frame", err)
	}
	if acquired == nil || acquired.Texture == nil {
		return nil, fmt.Errorf("%w: acquire frame: no texture", ErrSurfaceTimeout)
	}

	view, err := c.device.CreateTextureView(acquired.Texture, &hal.TextureViewDescriptor{
		Label:           "grafx_frame_view",
		Format:          c.config.Format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		c.surface.DiscardTexture(acquired.Texture)
		return nil, fmt.Errorf("grafx: create frame view: %w", err)
	}
	return &Frame{texture: acquired.Texture, view: view, Suboptimal: acquired.Suboptimal}, nil
}

// Present hands the frame to the compositor and releases its view.
func (c *Context) Present(f *Frame) error {
	defer c.device.DestroyTextureView(f.view)
	if err := c.queue.Present(c.surface, f.texture, nil); err != nil {
		return surfaceError("present", err)
	}
	return nil
}

// Discard returns an acquired frame without presenting it.
func (c *Context) Discard(f *Frame) {
	c.device.DestroyTextureView(f.view)
	c.surface.DiscardTexture(f.texture)
}

// Destroy releases the surface, device and instance. Safe to call on a
// partially initialized Context.
func (c *Context) Destroy() {
	if c.surface != nil {
		if c.device != nil {
			c.surface.Unconfigure(c.device)
		}
		c.surface.Destroy()
		c.surface = nil
	}
	if c.device != nil {
		c.device.Destroy()
		c.device = nil
	}
	if c.instance != nil {
		c.instance.Destroy()
		c.instance = nil
	}
}
