package grafx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/grafx/internal/gpu"
)

// Errors produced by the GPU layer.
var (
	// ErrInitialization aborts startup: no adapter, device, surface or
	// pipeline could be created.
	ErrInitialization = gpu.ErrInitialization

	// ErrSurfaceLost is returned by RenderFrame once surface recovery has
	// been retried MaxSurfaceRetries times without success.
	ErrSurfaceLost = gpu.ErrSurfaceLost

	// ErrSurfaceTimeout is returned when no frame became available. It is
	// not fatal; the next redraw tries again.
	ErrSurfaceTimeout = gpu.ErrSurfaceTimeout

	// ErrInvalidImageData is returned when pixels do not match their
	// declared dimensions.
	ErrInvalidImageData = gpu.ErrInvalidImageData
)

// Renderer errors.
var (
	// ErrDecode is returned when an asset cannot be decoded to pixels.
	ErrDecode = errors.New("grafx: decode failed")

	// ErrMissingTexture matches any *MissingTextureError.
	ErrMissingTexture = errors.New("grafx: missing texture")

	// ErrEmptyFrame is returned when sprites were due to be drawn but none
	// of them could be.
	ErrEmptyFrame = errors.New("grafx: empty frame")

	// ErrUnknownSprite is returned for operations on an unregistered sprite.
	ErrUnknownSprite = errors.New("grafx: unknown sprite")

	// ErrClosed is returned by a Renderer after Close.
	ErrClosed = errors.New("grafx: renderer closed")
)

// MissingTextureError reports a visible sprite whose texture key does not
// resolve to a registered texture.
type MissingTextureError struct {
	Sprite  string
	Texture string
}

func (e *MissingTextureError) Error() string {
	return fmt.Sprintf("grafx: sprite %q: missing texture %q", e.Sprite, e.Texture)
}

// Is makes errors.Is(err, ErrMissingTexture) true.
func (e *MissingTextureError) Is(target error) bool {
	return target == ErrMissingTexture
}

// FrameError collects the per-sprite problems of one frame. The frame was
// still submitted and presented. Renderer.LastFrame returns it, and
// RenderFrame joins it with ErrEmptyFrame when nothing could be drawn.
type FrameError struct {
	// Attempted is the number of visible sprites.
	Attempted int
	// Drawn is the number of sprites actually drawn.
	Drawn int
	// Missing lists the sprites skipped for lack of a texture.
	Missing []*MissingTextureError
}

func (e *FrameError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "grafx: frame drew %d of %d sprites", e.Drawn, e.Attempted)
	for _, m := range e.Missing {
		fmt.Fprintf(&b, "; %s missing %s", m.Sprite, m.Texture)
	}
	return b.String()
}

// Unwrap exposes the individual diagnostics to errors.Is and errors.As.
func (e *FrameError) Unwrap() []error {
	errs := make([]error, len(e.Missing))
	for i, m := range e.Missing {
		errs[i] = m
	}
	return errs
}

// Fatal reports whether the render loop must stop. Frame diagnostics never
// stop it.
func (e *FrameError) Fatal() bool { return false }

// Empty reports whether nothing was drawn although sprites were visible.
func (e *FrameError) Empty() bool { return e.Attempted > 0 && e.Drawn == 0 }

// IsFatal reports whether an error from RenderFrame should end the loop.
// Timeouts and frame diagnostics are absorbed; anything else is fatal.
func IsFatal(err error) bool {
	if err == nil || errors.Is(err, ErrSurfaceTimeout) || errors.Is(err, ErrEmptyFrame) {
		return false
	}
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe.Fatal()
	}
	return true
}
