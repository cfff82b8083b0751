package grafx

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/grafx/backend"
	"github.com/gogpu/grafx/internal/gpu"
	"github.com/gogpu/wgpu/hal"
)

// Target is the window a Renderer presents to.
type Target interface {
	// Size returns the logical size of the drawable area.
	Size() (width, height int)

	// ScaleFactor returns physical pixels per logical point.
	ScaleFactor() float64

	// NativeHandle returns the platform display and window handles the
	// surface is created from.
	NativeHandle() (display, window uintptr)
}

// physicalSize converts a target's logical size to surface pixels.
func physicalSize(t Target) (width, height uint32) {
	w, h := t.Size()
	scale := t.ScaleFactor()
	if scale <= 0 {
		scale = 1
	}
	return toPixels(w, scale), toPixels(h, scale)
}

// initialSize is the target's physical size, or the configured window
// size when the target has not been laid out yet.
func initialSize(t Target, cfg Config) (width, height uint32) {
	if width, height = physicalSize(t); width > 0 && height > 0 {
		return width, height
	}
	scale := t.ScaleFactor()
	if scale <= 0 {
		scale = 1
	}
	return toPixels(cfg.Width, scale), toPixels(cfg.Height, scale)
}

func toPixels(points int, scale float64) uint32 {
	if points <= 0 {
		return 0
	}
	return uint32(math.Round(float64(points) * scale))
}

type spriteEntry struct {
	sprite  *gpu.Sprite
	visible bool
}

// submission is a command buffer the GPU may still be executing.
type submission struct {
	index uint64
	cmd   hal.CommandBuffer
}

// Renderer owns the GPU context, the sprite pipeline and the texture and
// sprite registries, and draws one frame per RenderFrame call.
//
// A Renderer is not safe for concurrent use. All calls must come from the
// goroutine running the window loop.
type Renderer struct {
	cfg    Config
	target Target

	ctx      *gpu.Context
	pipeline *gpu.Pipeline

	textures map[string]*gpu.TextureBinding
	sprites  map[string]*spriteEntry
	decoded  *decodeCache

	inflight  []submission
	lastFrame *FrameError
	closed    bool
}

// NewRenderer opens the configured backend on target and builds the sprite
// pipeline. Any failure is an ErrInitialization; nothing can be drawn
// without a Renderer.
func NewRenderer(target Target, opts ...Option) (*Renderer, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	return newRenderer(target, cfg)
}

func newRenderer(target Target, cfg Config) (*Renderer, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: nil target", ErrInitialization)
	}
	halBackend, err := backend.Get(cfg.Backend)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	width, height := initialSize(target, cfg)
	display, window := target.NativeHandle()
	ctx, err := gpu.NewContext(&gpu.ContextDescriptor{
		Backend:     halBackend,
		Display:     display,
		Window:      window,
		Width:       width,
		Height:      height,
		PresentMode: cfg.PresentMode,
	})
	if err != nil {
		return nil, err
	}

	pipeline, err := gpu.NewPipeline(ctx.Device(), ctx.Config().Format)
	if err != nil {
		ctx.Destroy()
		return nil, err
	}

	Logger().Info("grafx: renderer ready",
		"backend", cfg.Backend,
		"adapter", ctx.AdapterInfo().Name,
		"width", width,
		"height", height,
	)

	return &Renderer{
		cfg:      cfg,
		target:   target,
		ctx:      ctx,
		pipeline: pipeline,
		textures: make(map[string]*gpu.TextureBinding),
		sprites:  make(map[string]*spriteEntry),
		decoded:  newDecodeCache(cfg.AssetCacheSize),
	}, nil
}

// Config returns the settings the Renderer was created with.
func (r *Renderer) Config() Config { return r.cfg }

// AdapterInfo describes the GPU in use.
func (r *Renderer) AdapterInfo() gputypes.AdapterInfo { return r.ctx.AdapterInfo() }

// SurfaceSize returns the configured surface size in pixels.
func (r *Renderer) SurfaceSize() (width, height uint32) {
	c := r.ctx.Config()
	return c.Width, c.Height
}

// AddTexture uploads RGBA8 pixels under key. A texture already registered
// under key is replaced and its GPU memory released; sprites referring to
// key draw the new texture from the next frame on.
func (r *Renderer) AddTexture(key string, pixels []byte, width, height uint32) error {
	if r.closed {
		return ErrClosed
	}
	binding, err := gpu.NewTextureBinding(r.ctx.Device(), r.ctx.Queue(), &gpu.TextureDescriptor{
		Key:    key,
		Pixels: pixels,
		Width:  width,
		Height: height,
		Layout: r.pipeline.TextureLayout(),
		Filter: r.cfg.Filter,
	})
	if err != nil {
		return err
	}
	if old, ok := r.textures[key]; ok {
		r.waitIdle()
		old.Destroy()
		Logger().Debug("grafx: texture replaced", "key", key)
	}
	r.textures[key] = binding
	return nil
}

// RemoveTexture releases the texture under key. Sprites that still refer
// to it are skipped and reported as missing until a texture is added
// again. It reports whether a texture was removed.
func (r *Renderer) RemoveTexture(key string) bool {
	binding, ok := r.textures[key]
	if !ok || r.closed {
		return false
	}
	r.waitIdle()
	binding.Destroy()
	delete(r.textures, key)
	return true
}

// HasTexture reports whether a texture is registered under key.
func (r *Renderer) HasTexture(key string) bool {
	_, ok := r.textures[key]
	return ok
}

// AddSprite registers a visible full-screen sprite drawing the texture
// registered under textureKey. The texture does not need to exist yet.
// A sprite already registered under key is replaced.
func (r *Renderer) AddSprite(key, textureKey string) error {
	if r.closed {
		return ErrClosed
	}
	sprite, err := gpu.FullscreenQuad(r.ctx.Device(), r.ctx.Queue(), key, textureKey)
	if err != nil {
		return err
	}
	if old, ok := r.sprites[key]; ok {
		r.waitIdle()
		old.sprite.Destroy()
	}
	r.sprites[key] = &spriteEntry{sprite: sprite, visible: true}
	return nil
}

// RemoveSprite releases the sprite under key and reports whether it existed.
func (r *Renderer) RemoveSprite(key string) bool {
	entry, ok := r.sprites[key]
	if !ok || r.closed {
		return false
	}
	r.waitIdle()
	entry.sprite.Destroy()
	delete(r.sprites, key)
	return true
}

// SetVisible shows or hides a sprite.
func (r *Renderer) SetVisible(key string, visible bool) error {
	entry, ok := r.sprites[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSprite, key)
	}
	entry.visible = visible
	return nil
}

// Visible reports whether the sprite under key exists and is shown.
func (r *Renderer) Visible(key string) bool {
	entry, ok := r.sprites[key]
	return ok && entry.visible
}

// Textures returns the registered texture keys in sorted order.
func (r *Renderer) Textures() []string {
	return slices.Sorted(maps.Keys(r.textures))
}

// Sprites returns the registered sprite keys in sorted order, which is
// also the order they are drawn in.
func (r *Renderer) Sprites() []string {
	return slices.Sorted(maps.Keys(r.sprites))
}

// Resize reconfigures the surface to a new size in physical pixels. It
// must be called after every window resize and before the next frame.
func (r *Renderer) Resize(width, height uint32) error {
	if r.closed {
		return ErrClosed
	}
	c := r.ctx.Config()
	if c.Width == width && c.Height == height {
		return nil
	}
	r.waitIdle()
	return r.ctx.Reconfigure(width, height)
}

// RenderFrame acquires a surface image, clears it, draws every visible
// sprite in key order and presents it.
//
// The returned error is one of:
//   - nil: at least one sprite was drawn, or none was visible; sprites
//     skipped along the way are reported by LastFrame;
//   - ErrEmptyFrame joined with a *FrameError: no visible sprite could
//     be drawn, the frame was presented with the background only;
//   - ErrSurfaceTimeout: no image was available, try again next redraw;
//   - anything else, including ErrSurfaceLost after MaxSurfaceRetries
//     reconfigurations, is fatal. Use IsFatal to tell them apart.
func (r *Renderer) RenderFrame() error {
	if r.closed {
		return ErrClosed
	}
	r.reclaim()

	frame, err := r.acquire()
	if err != nil {
		return err
	}

	r.lastFrame = nil
	diag, err := r.encode(frame)
	if err != nil {
		r.ctx.Discard(frame)
		return err
	}

	if err := r.ctx.Present(frame); err != nil {
		if !errors.Is(err, ErrSurfaceLost) {
			return err
		}
		Logger().Warn("grafx: surface lost at present", "err", err)
		if rerr := r.reconfigureToTarget(); rerr != nil {
			return errors.Join(err, rerr)
		}
	} else if frame.Suboptimal {
		Logger().Debug("grafx: suboptimal surface, reconfiguring")
		if rerr := r.reconfigureToTarget(); rerr != nil {
			Logger().Warn("grafx: reconfigure after suboptimal frame failed", "err", rerr)
		}
	}

	r.lastFrame = diag.report()
	return diag.result()
}

// LastFrame returns the sprites the last presented frame had to skip, or
// nil when it drew every visible sprite.
func (r *Renderer) LastFrame() *FrameError { return r.lastFrame }

// acquire gets the next surface image. A lost surface is reconfigured to
// the target's current size and acquisition retried up to
// MaxSurfaceRetries times.
func (r *Renderer) acquire() (*gpu.Frame, error) {
	for attempt := 0; ; attempt++ {
		frame, err := r.ctx.AcquireFrame()
		if err == nil {
			return frame, nil
		}
		if !errors.Is(err, ErrSurfaceLost) {
			return nil, err
		}
		if attempt >= r.cfg.MaxSurfaceRetries {
			return nil, fmt.Errorf("grafx: giving up after %d reconfigurations: %w", attempt, err)
		}
		Logger().Warn("grafx: surface lost, reconfiguring", "attempt", attempt+1, "err", err)
		if rerr := r.reconfigureToTarget(); rerr != nil {
			return nil, errors.Join(err, rerr)
		}
	}
}

// reconfigureToTarget applies the target's current physical size, or the
// active size when the target reports none.
func (r *Renderer) reconfigureToTarget() error {
	width, height := physicalSize(r.target)
	if width == 0 || height == 0 {
		c := r.ctx.Config()
		width, height = c.Width, c.Height
	}
	r.waitIdle()
	return r.ctx.Reconfigure(width, height)
}

// frameDiagnostics accumulates the sprite outcomes of one frame.
type frameDiagnostics struct {
	attempted int
	drawn     int
	missing   []*MissingTextureError
}

func (d *frameDiagnostics) report() *FrameError {
	if len(d.missing) == 0 {
		return nil
	}
	return &FrameError{Attempted: d.attempted, Drawn: d.drawn, Missing: d.missing}
}

// result fails the frame only when sprites were due and none was drawn.
func (d *frameDiagnostics) result() error {
	if d.attempted == 0 || d.drawn > 0 {
		return nil
	}
	fe := d.report()
	if fe == nil {
		fe = &FrameError{Attempted: d.attempted}
	}
	return errors.Join(ErrEmptyFrame, fe)
}

// encode records and submits the frame's single render pass.
func (r *Renderer) encode(frame *gpu.Frame) (*frameDiagnostics, error) {
	device := r.ctx.Device()
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "grafx_frame"})
	if err != nil {
		return nil, fmt.Errorf("grafx: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("grafx_frame"); err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("grafx: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "grafx_sprites",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       frame.View(),
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: r.cfg.ClearColor,
		}},
	})
	r.pipeline.Bind(rp)

	diag := &frameDiagnostics{}
	for _, key := range r.Sprites() {
		entry := r.sprites[key]
		if !entry.visible {
			continue
		}
		diag.attempted++
		binding, ok := r.textures[entry.sprite.TextureKey()]
		if !ok {
			missing := &MissingTextureError{Sprite: key, Texture: entry.sprite.TextureKey()}
			diag.missing = append(diag.missing, missing)
			Logger().Warn("grafx: sprite skipped", "sprite", key, "texture", missing.Texture)
			continue
		}
		entry.sprite.Draw(rp, binding)
		diag.drawn++
	}
	rp.End()

	cmd, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return nil, fmt.Errorf("grafx: end encoding: %w", err)
	}
	index, err := r.ctx.Queue().Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		device.FreeCommandBuffer(cmd)
		return nil, fmt.Errorf("grafx: submit: %w", err)
	}
	r.inflight = append(r.inflight, submission{index: index, cmd: cmd})

	Logger().Debug("grafx: frame submitted",
		"submission", index,
		"drawn", diag.drawn,
		"attempted", diag.attempted,
	)
	return diag, nil
}

// reclaim frees the command buffers of submissions the GPU has finished.
func (r *Renderer) reclaim() {
	if len(r.inflight) == 0 {
		return
	}
	done := r.ctx.Queue().PollCompleted()
	n := 0
	for _, s := range r.inflight {
		if s.index <= done {
			r.ctx.Device().FreeCommandBuffer(s.cmd)
			continue
		}
		r.inflight[n] = s
		n++
	}
	clear(r.inflight[n:])
	r.inflight = r.inflight[:n]
}

// waitIdle blocks until the GPU has finished every submission, so that
// resources the last frames used can be released.
func (r *Renderer) waitIdle() {
	if len(r.inflight) == 0 {
		return
	}
	if err := r.ctx.Device().WaitIdle(); err != nil {
		Logger().Warn("grafx: wait idle failed", "err", err)
	}
	r.reclaim()
}

// Close waits for the GPU and releases every sprite, texture, the pipeline
// and the GPU context. Further calls are no-ops.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if werr := r.ctx.Device().WaitIdle(); werr != nil {
		err = fmt.Errorf("grafx: wait idle: %w", werr)
	}
	for _, s := range r.inflight {
		r.ctx.Device().FreeCommandBuffer(s.cmd)
	}
	r.inflight = nil

	for _, key := range r.Sprites() {
		r.sprites[key].sprite.Destroy()
	}
	clear(r.sprites)
	for _, key := range r.Textures() {
		r.textures[key].Destroy()
	}
	clear(r.textures)
	r.decoded.Clear()

	r.pipeline.Destroy()
	r.ctx.Destroy()
	Logger().Info("grafx: renderer closed")
	return err
}
