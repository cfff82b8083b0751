package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// TextureFormat is the format every sprite texture is stored in.
// Decoded pixels are sRGB-encoded, so sampling returns linear color.
const TextureFormat = gputypes.TextureFormatRGBA8UnormSrgb

// TextureDescriptor describes the pixels and sampling of a TextureBinding.
type TextureDescriptor struct {
	// Key is the logical name sprites use to refer to the binding.
	Key string

	// Pixels holds Width*Height straight-alpha RGBA8 texels, row-major.
	Pixels []byte
	Width  uint32
	Height uint32

	// Layout is the texture/sampler bind group layout of the pipeline
	// the binding will be drawn with.
	Layout hal.BindGroupLayout

	// Filter is used for magnification, minification and mip selection.
	// Zero means nearest.
	Filter gputypes.FilterMode
}

// TextureBinding is an uploaded texture together with the sampler and the
// immutable bind group draws use. Replacing a texture means building a new
// binding; an existing one is never modified.
type TextureBinding struct {
	device hal.Device

	key     string
	width   uint32
	height  uint32
	texture hal.Texture
	view    hal.TextureView
	sampler hal.Sampler
	group   hal.BindGroup
}

// NewTextureBinding allocates a texture sized to the descriptor, uploads the
// pixels synchronously and builds the bind group.
//
// A pixel buffer whose length is not Width*Height*4 is rejected with
// ErrInvalidImageData before any GPU memory is allocated.
func NewTextureBinding(device hal.Device, queue hal.Queue, desc *TextureDescriptor) (*TextureBinding, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("%w: texture %q has size %dx%d", ErrInvalidImageData, desc.Key, desc.Width, desc.Height)
	}
	if want := uint64(desc.Width) * uint64(desc.Height) * 4; uint64(len(desc.Pixels)) != want {
		return nil, fmt.Errorf("%w: texture %q: got %d bytes, want %d for %dx%d RGBA8",
			ErrInvalidImageData, desc.Key, len(desc.Pixels), want, desc.Width, desc.Height)
	}
	if desc.Layout == nil {
		return nil, fmt.Errorf("grafx: texture %q: nil bind group layout", desc.Key)
	}

	b := &TextureBinding{device: device, key: desc.Key, width: desc.Width, height: desc.Height}
	if err := b.create(queue, desc); err != nil {
		b.Destroy()
		return nil, err
	}

	slogger().Debug("grafx: texture uploaded",
		"key", desc.Key,
		"width", desc.Width,
		"height", desc.Height,
	)
	return b, nil
}

func (b *TextureBinding) create(queue hal.Queue, desc *TextureDescriptor) error {
	size := hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1}

	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Key,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        TextureFormat,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create texture %q: %w", desc.Key, err)
	}
	b.texture = tex

	err = queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		desc.Pixels,
		&hal.ImageDataLayout{BytesPerRow: 4 * desc.Width, RowsPerImage: desc.Height},
		&size,
	)
	if err != nil {
		return fmt.Errorf("upload texture %q: %w", desc.Key, err)
	}

	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           desc.Key + "_view",
		Format:          TextureFormat,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return fmt.Errorf("create texture view %q: %w", desc.Key, err)
	}
	b.view = view

	filter := desc.Filter
	if filter == 0 {
		filter = gputypes.FilterModeNearest
	}
	sampler, err := b.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Key + "_sampler",
		AddressModeU: gputypes.AddressModeMirrorRepeat,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: filter,
	})
	if err != nil {
		return fmt.Errorf("create sampler %q: %w", desc.Key, err)
	}
	b.sampler = sampler

	group, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  desc.Key + "_bind_group",
		Layout: desc.Layout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group %q: %w", desc.Key, err)
	}
	b.group = group
	return nil
}

// Key returns the logical name of the binding.
func (b *TextureBinding) Key() string { return b.key }

// Size returns the texture dimensions in texels.
func (b *TextureBinding) Size() (width, height uint32) { return b.width, b.height }

// BindGroup returns the immutable view+sampler bind group.
func (b *TextureBinding) BindGroup() hal.BindGroup { return b.group }

// Destroy releases the bind group, sampler, view and texture.
func (b *TextureBinding) Destroy() {
	if b.group != nil {
		b.device.DestroyBindGroup(b.group)
		b.group = nil
	}
	if b.sampler != nil {
		b.device.DestroySampler(b.sampler)
		b.sampler = nil
	}
	if b.view != nil {
		b.device.DestroyTextureView(b.view)
		b.view = nil
	}
	if b.texture != nil {
		b.device.DestroyTexture(b.texture)
		b.texture = nil
	}
}
