// Package gputest wraps the noop hal backend with recorders for tests.
//
// A Backend behaves exactly like noop.API but counts passes, draws,
// submissions and presents, remembers every surface configuration, and can
// be told to fail surface acquisition a given number of times.
package gputest

import (
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// Recorder collects what the wrapped backend was asked to do.
type Recorder struct {
	Passes    int
	Draws     int
	Pipelines int

	// Destroyed counts destroyed bind groups.
	Destroyed int

	Submits      int
	Presents     int
	Discards     int
	AcquireCalls int
	Configures   []hal.SurfaceConfiguration
	ClearColors  []gputypes.Color

	// Bound holds the label of every bind group set on a render pass,
	// in order.
	Bound []string

	// AcquireErrors are returned by successive AcquireTexture calls.
	// A nil entry, or an exhausted slice, means success.
	AcquireErrors []error

	// PresentErrors are returned by successive Present calls.
	PresentErrors []error

	// BeginEncodingErr and EndEncodingErr, when set, fail every
	// BeginEncoding and EndEncoding call.
	BeginEncodingErr error
	EndEncodingErr   error

	// DiscardedEncoders counts DiscardEncoding calls.
	DiscardedEncoders int
}

// LastConfig returns the most recent surface configuration.
func (r *Recorder) LastConfig() hal.SurfaceConfiguration {
	if len(r.Configures) == 0 {
		return hal.SurfaceConfiguration{}
	}
	return r.Configures[len(r.Configures)-1]
}

// Backend is a recording noop backend.
type Backend struct {
	hal.Backend
	Rec *Recorder
}

// NewBackend returns a recording wrapper over noop.API.
func NewBackend() *Backend {
	return &Backend{Backend: noop.API{}, Rec: &Recorder{}}
}

// CreateInstance wraps the noop instance.
func (b *Backend) CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error) {
	inst, err := b.Backend.CreateInstance(desc)
	if err != nil {
		return nil, err
	}
	return &instance{Instance: inst, rec: b.Rec}, nil
}

type instance struct {
	hal.Instance
	rec *Recorder
}

func (i *instance) CreateSurface(display, window uintptr) (hal.Surface, error) {
	s, err := i.Instance.CreateSurface(display, window)
	if err != nil {
		return nil, err
	}
	return &surface{Surface: s, rec: i.rec}, nil
}

func (i *instance) EnumerateAdapters(hint hal.Surface) []hal.ExposedAdapter {
	if s, ok := hint.(*surface); ok {
		hint = s.Surface
	}
	list := i.Instance.EnumerateAdapters(hint)
	for k := range list {
		list[k].Adapter = &adapter{Adapter: list[k].Adapter, rec: i.rec}
	}
	return list
}

type adapter struct {
	hal.Adapter
	rec *Recorder
}

func (a *adapter) Open(features gputypes.Features, limits gputypes.Limits) (hal.OpenDevice, error) {
	od, err := a.Adapter.Open(features, limits)
	if err != nil {
		return od, err
	}
	od.Device = &device{Device: od.Device, rec: a.rec}
	od.Queue = &queue{Queue: od.Queue, rec: a.rec}
	return od, nil
}

type surface struct {
	hal.Surface
	rec *Recorder
}

func (s *surface) Configure(d hal.Device, cfg *hal.SurfaceConfiguration) error {
	s.rec.Configures = append(s.rec.Configures, *cfg)
	return s.Surface.Configure(unwrapDevice(d), cfg)
}

func (s *surface) Unconfigure(d hal.Device) { s.Surface.Unconfigure(unwrapDevice(d)) }

func (s *surface) AcquireTexture(fence hal.Fence) (*hal.AcquiredSurfaceTexture, error) {
	s.rec.AcquireCalls++
	if len(s.rec.AcquireErrors) > 0 {
		err := s.rec.AcquireErrors[0]
		s.rec.AcquireErrors = s.rec.AcquireErrors[1:]
		if err != nil {
			return nil, err
		}
	}
	return s.Surface.AcquireTexture(fence)
}

func (s *surface) DiscardTexture(t hal.SurfaceTexture) {
	s.rec.Discards++
	s.Surface.DiscardTexture(t)
}

type device struct {
	hal.Device
	rec *Recorder
}

func unwrapDevice(d hal.Device) hal.Device {
	if w, ok := d.(*device); ok {
		return w.Device
	}
	return d
}

func (d *device) CreateCommandEncoder(desc *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	enc, err := d.Device.CreateCommandEncoder(desc)
	if err != nil {
		return nil, err
	}
	return &encoder{CommandEncoder: enc, rec: d.rec}, nil
}

// BindGroup is a noop bind group that remembers its label. Noop bind
// groups are zero-sized and cannot be told apart otherwise.
type BindGroup struct {
	hal.BindGroup
	Label string
}

func (d *device) CreateBindGroup(desc *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	bg, err := d.Device.CreateBindGroup(desc)
	if err != nil {
		return nil, err
	}
	return &BindGroup{BindGroup: bg, Label: desc.Label}, nil
}

func (d *device) DestroyBindGroup(group hal.BindGroup) {
	d.rec.Destroyed++
	if w, ok := group.(*BindGroup); ok {
		group = w.BindGroup
	}
	d.Device.DestroyBindGroup(group)
}

type encoder struct {
	hal.CommandEncoder
	rec *Recorder
}

func (e *encoder) BeginEncoding(label string) error {
	if e.rec.BeginEncodingErr != nil {
		return e.rec.BeginEncodingErr
	}
	return e.CommandEncoder.BeginEncoding(label)
}

func (e *encoder) EndEncoding() (hal.CommandBuffer, error) {
	if e.rec.EndEncodingErr != nil {
		return nil, e.rec.EndEncodingErr
	}
	return e.CommandEncoder.EndEncoding()
}

func (e *encoder) DiscardEncoding() {
	e.rec.DiscardedEncoders++
	e.CommandEncoder.DiscardEncoding()
}

func (e *encoder) BeginRenderPass(desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	e.rec.Passes++
	for _, ca := range desc.ColorAttachments {
		if ca.LoadOp == gputypes.LoadOpClear {
			e.rec.ClearColors = append(e.rec.ClearColors, ca.ClearValue)
		}
	}
	return &pass{RenderPassEncoder: e.CommandEncoder.BeginRenderPass(desc), rec: e.rec}
}

type pass struct {
	hal.RenderPassEncoder
	rec *Recorder
}

func (p *pass) SetPipeline(pl hal.RenderPipeline) {
	p.rec.Pipelines++
	p.RenderPassEncoder.SetPipeline(pl)
}

func (p *pass) SetBindGroup(index uint32, group hal.BindGroup, offsets []uint32) {
	if w, ok := group.(*BindGroup); ok {
		p.rec.Bound = append(p.rec.Bound, w.Label)
		group = w.BindGroup
	}
	p.RenderPassEncoder.SetBindGroup(index, group, offsets)
}

func (p *pass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.rec.Draws++
	p.RenderPassEncoder.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

type queue struct {
	hal.Queue
	rec *Recorder
}

func (q *queue) Submit(buffers []hal.CommandBuffer) (uint64, error) {
	q.rec.Submits++
	return q.Queue.Submit(buffers)
}

func (q *queue) Present(s hal.Surface, t hal.SurfaceTexture, damage []image.Rectangle) error {
	q.rec.Presents++
	if len(q.rec.PresentErrors) > 0 {
		err := q.rec.PresentErrors[0]
		q.rec.PresentErrors = q.rec.PresentErrors[1:]
		if err != nil {
			return err
		}
	}
	if w, ok := s.(*surface); ok {
		s = w.Surface
	}
	return q.Queue.Present(s, t, damage)
}
