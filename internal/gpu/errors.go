package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// GPU layer errors.
var (
	// ErrInitialization is returned when no usable adapter, device or
	// surface could be created, or the sprite pipeline failed to build.
	ErrInitialization = errors.New("grafx: GPU initialization failed")

	// ErrSurfaceLost is returned when the surface is lost or outdated.
	// Reconfiguring the surface usually recovers.
	ErrSurfaceLost = errors.New("grafx: surface lost")

	// ErrSurfaceTimeout is returned when no presentable image became
	// available in time. The frame should be retried on the next redraw.
	ErrSurfaceTimeout = errors.New("grafx: surface timeout")

	// ErrInvalidImageData is returned when a pixel buffer does not match
	// its declared dimensions.
	ErrInvalidImageData = errors.New("grafx: invalid image data")

	// ErrNilDevice is returned when a constructor receives a nil device or queue.
	ErrNilDevice = errors.New("grafx: nil device or queue")
)

// surfaceError maps a hal acquisition or presentation error onto the
// grafx surface taxonomy. Unknown errors are returned wrapped but unmapped.
func surfaceError(op string, err error) error {
	switch {
	case errors.Is(err, hal.ErrSurfaceLost), errors.Is(err, hal.ErrSurfaceOutdated):
		return fmt.Errorf("%w: %s: %w", ErrSurfaceLost, op, err)
	case errors.Is(err, hal.ErrTimeout), errors.Is(err, hal.ErrNotReady):
		return fmt.Errorf("%w: %s: %w", ErrSurfaceTimeout, op, err)
	default:
		return fmt.Errorf("grafx: %s: %w", op, err)
	}
}
