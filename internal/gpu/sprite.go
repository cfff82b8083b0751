package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Vertex is one sprite vertex: a clip-space position and a texture coordinate.
type Vertex struct {
	Position  [3]float32
	TexCoords [2]float32
}

// vertexStride is the byte size of Vertex on the GPU (vec3 + vec2 of f32).
const vertexStride = 20

// Counter-clockwise, so back-face culling keeps the quad.
var (
	quadVertices = [4]Vertex{
		{Position: [3]float32{-1, 1, 0}, TexCoords: [2]float32{0, 0}},  // top left
		{Position: [3]float32{-1, -1, 0}, TexCoords: [2]float32{0, 1}}, // bottom left
		{Position: [3]float32{1, -1, 0}, TexCoords: [2]float32{1, 1}},  // bottom right
		{Position: [3]float32{1, 1, 0}, TexCoords: [2]float32{1, 0}},   // top right
	}
	quadIndices = [6]uint16{0, 1, 2, 0, 2, 3}
)

// QuadGeometry returns copies of the full-screen quad's vertices and indices.
func QuadGeometry() ([]Vertex, []uint16) {
	v := quadVertices
	i := quadIndices
	return v[:], i[:]
}

// vertexBufferLayout describes Vertex to the pipeline.
func vertexBufferLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: vertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
			},
		},
	}
}

// Sprite is a drawable quad. It owns its geometry buffers but only refers
// to its texture by key; the binding is looked up at draw time.
type Sprite struct {
	device hal.Device

	key        string
	textureKey string
	vertexBuf  hal.Buffer
	indexBuf   hal.Buffer
	indexCount uint32
}

// FullscreenQuad builds a sprite covering the whole render target.
// Geometry is uploaded once and never changes.
func FullscreenQuad(device hal.Device, queue hal.Queue, key, textureKey string) (*Sprite, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	vertices, indices := QuadGeometry()

	s := &Sprite{
		device:     device,
		key:        key,
		textureKey: textureKey,
		indexCount: uint32(len(indices)),
	}

	var err error
	s.vertexBuf, err = uploadBuffer(device, queue, key+"_vertices", encodeVertices(vertices),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		s.Destroy()
		return nil, err
	}
	s.indexBuf, err = uploadBuffer(device, queue, key+"_indices", encodeIndices(indices),
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

// Key returns the sprite's logical name.
func (s *Sprite) Key() string { return s.key }

// TextureKey returns the key of the texture binding the sprite draws with.
func (s *Sprite) TextureKey() string { return s.textureKey }

// IndexCount returns the number of indices issued per draw.
func (s *Sprite) IndexCount() uint32 { return s.indexCount }

// Draw records the sprite into an open render pass whose pipeline is
// already bound.
func (s *Sprite) Draw(rp hal.RenderPassEncoder, tex *TextureBinding) {
	rp.SetBindGroup(0, tex.BindGroup(), nil)
	rp.SetVertexBuffer(0, s.vertexBuf, 0)
	rp.SetIndexBuffer(s.indexBuf, gputypes.IndexFormatUint16, 0)
	rp.DrawIndexed(s.indexCount, 1, 0, 0, 0)
}

// Destroy releases the geometry buffers.
func (s *Sprite) Destroy() {
	if s.indexBuf != nil {
		s.device.DestroyBuffer(s.indexBuf)
		s.indexBuf = nil
	}
	if s.vertexBuf != nil {
		s.device.DestroyBuffer(s.vertexBuf)
		s.vertexBuf = nil
	}
}

// uploadBuffer creates a GPU buffer and writes data into it.
func uploadBuffer(device hal.Device, queue hal.Queue, label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := queue.WriteBuffer(buf, 0, data); err != nil {
		device.DestroyBuffer(buf)
		return nil, fmt.Errorf("upload %s: %w", label, err)
	}
	return buf, nil
}

func encodeVertices(vertices []Vertex) []byte {
	data := make([]byte, len(vertices)*vertexStride)
	for i, v := range vertices {
		off := i * vertexStride
		binary.LittleEndian.PutUint32(data[off:], math.Float32bits(v.Position[0]))
		binary.LittleEndian.PutUint32(data[off+4:], math.Float32bits(v.Position[1]))
		binary.LittleEndian.PutUint32(data[off+8:], math.Float32bits(v.Position[2]))
		binary.LittleEndian.PutUint32(data[off+12:], math.Float32bits(v.TexCoords[0]))
		binary.LittleEndian.PutUint32(data[off+16:], math.Float32bits(v.TexCoords[1]))
	}
	return data
}

// encodeIndices packs indices as little-endian uint16. The result is padded
// to a multiple of four bytes as buffer writes require.
func encodeIndices(indices []uint16) []byte {
	n := len(indices) * 2
	data := make([]byte, (n+3)&^3)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(data[i*2:], idx)
	}
	return data
}
