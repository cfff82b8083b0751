package backend

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Backend names.
const (
	Auto   = "auto"
	Vulkan = "vulkan"
	Metal  = "metal"
	DX12   = "dx12"
	GLES   = "gles"
	Noop   = "noop"
)

// ErrBackendNotAvailable is returned when a requested backend is not linked
// into the binary or not registered.
var ErrBackendNotAvailable = errors.New("backend: not available")

// Priority order for backend selection (first available wins).
var backendPriority = []string{Vulkan, Metal, DX12, GLES, Noop}

var registry = gpucontext.NewRegistry[hal.Backend](gpucontext.WithPriority(backendPriority...))

func init() {
	variants := map[string]gputypes.Backend{
		Vulkan: gputypes.BackendVulkan,
		Metal:  gputypes.BackendMetal,
		DX12:   gputypes.BackendDX12,
		GLES:   gputypes.BackendGL,
		Noop:   gputypes.BackendEmpty,
	}
	for name, variant := range variants {
		registry.Register(name, halFactory(variant))
	}
}

// halFactory resolves a variant through the hal registry at call time, so
// backends whose init runs after this package are still found.
func halFactory(variant gputypes.Backend) func() hal.Backend {
	return func() hal.Backend {
		b, ok := hal.GetBackend(variant)
		if !ok {
			return nil
		}
		return b
	}
}

// Register adds or replaces a named backend factory. A factory returning
// nil marks the backend as unavailable.
func Register(name string, factory func() hal.Backend) {
	registry.Register(name, factory)
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registry.Unregister(name)
}

// Get returns the named backend. An empty name or Auto selects Default.
func Get(name string) (hal.Backend, error) {
	if name == "" || name == Auto {
		return Default()
	}
	if !registry.Has(name) {
		return nil, fmt.Errorf("%w: unknown backend %q", ErrBackendNotAvailable, name)
	}
	b := registry.Get(name)
	if b == nil {
		return nil, fmt.Errorf("%w: %s is not linked in", ErrBackendNotAvailable, name)
	}
	return b, nil
}

// Default returns the best available backend based on priority, then any
// other registered backend in name order.
func Default() (hal.Backend, error) {
	for _, name := range backendPriority {
		if b := registry.Get(name); b != nil {
			return b, nil
		}
	}
	for _, name := range Available() {
		if b := registry.Get(name); b != nil {
			return b, nil
		}
	}
	return nil, ErrBackendNotAvailable
}

// Available returns the sorted names of registered backends that resolve
// to a linked implementation.
func Available() []string {
	var names []string
	for _, name := range registry.Available() {
		if registry.Get(name) != nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
