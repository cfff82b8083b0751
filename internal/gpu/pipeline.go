package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Pipeline is the single sprite render pipeline. It is built once for a
// surface format and never rebuilt; a format change needs a new Pipeline.
type Pipeline struct {
	device hal.Device
	format gputypes.TextureFormat

	shader         hal.ShaderModule
	textureLayout  hal.BindGroupLayout
	pipelineLayout hal.PipelineLayout
	pipeline       hal.RenderPipeline
}

// NewPipeline validates the sprite shader and compiles the pipeline for
// render targets of the given format.
func NewPipeline(device hal.Device, format gputypes.TextureFormat) (*Pipeline, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if err := ValidateShader(spriteShaderSource); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	p := &Pipeline{device: device, format: format}
	if err := p.create(); err != nil {
		p.Destroy()
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	slogger().Debug("grafx: sprite pipeline created", "format", format)
	return p, nil
}

func (p *Pipeline) create() error {
	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "sprite_shader",
		Source: hal.ShaderSource{WGSL: spriteShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile sprite shader: %w", err)
	}
	p.shader = shader

	textureLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sprite_texture_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler: &gputypes.SamplerBindingLayout{
					Type: gputypes.SamplerBindingTypeFiltering,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create sprite bind group layout: %w", err)
	}
	p.textureLayout = textureLayout

	pipelineLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "sprite_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{textureLayout},
	})
	if err != nil {
		return fmt.Errorf("create sprite pipeline layout: %w", err)
	}
	p.pipelineLayout = pipelineLayout

	blend := gputypes.BlendStateReplace()
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "sprite_pipeline",
		Layout: pipelineLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: vertexEntryPoint,
			Buffers:    vertexBufferLayout(),
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeBack,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: fragmentEntryPoint,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.format,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create sprite render pipeline: %w", err)
	}
	p.pipeline = pipeline
	return nil
}

// Format returns the render target format the pipeline was built for.
func (p *Pipeline) Format() gputypes.TextureFormat { return p.format }

// TextureLayout returns the bind group layout texture bindings must use.
func (p *Pipeline) TextureLayout() hal.BindGroupLayout { return p.textureLayout }

// Bind sets the pipeline on a render pass.
func (p *Pipeline) Bind(rp hal.RenderPassEncoder) { rp.SetPipeline(p.pipeline) }

// Destroy releases GPU objects in reverse creation order.
func (p *Pipeline) Destroy() {
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipelineLayout != nil {
		p.device.DestroyPipelineLayout(p.pipelineLayout)
		p.pipelineLayout = nil
	}
	if p.textureLayout != nil {
		p.device.DestroyBindGroupLayout(p.textureLayout)
		p.textureLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
