// Package backend selects the wgpu HAL backend grafx renders with.
//
// Backends are linked in by importing their hal package for side effects;
// this package only maps stable names onto whatever is linked:
//
//	import _ "github.com/gogpu/wgpu/hal/vulkan"
//
//	b, err := backend.Get("vulkan")
//
// # Backend Selection
//
// Get("") and Get("auto") return Default, the first linked backend in
// priority order: vulkan, metal, dx12, gles, then noop. The noop name
// resolves to whichever BackendEmpty implementation is linked (the noop
// test backend or the software rasterizer).
//
// Custom backends, such as recording wrappers in tests, are added with
// Register and take part in selection by name.
package backend
