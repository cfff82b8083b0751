// Package gpu holds the hardware side of grafx: the device and surface
// context, texture bindings, sprite geometry and the single sprite pipeline.
//
// Everything here talks to gogpu/wgpu through the hal interfaces, so the
// same code runs on Vulkan, Metal, DX12, GLES or the noop backend used in
// tests.
//
// Ownership is strict. A Context owns the device, queue and surface. A
// Pipeline, TextureBinding or Sprite owns the GPU objects it created and
// releases them in Destroy, in reverse creation order. None of the types are
// safe for concurrent use; they are driven from the single render thread.
package gpu
