//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
)

// quadPositions covers clip space with two triangles.
var quadPositions = [12]float32{
	-1, -1, 1, -1, -1, 1,
	-1, 1, 1, -1, 1, 1,
}

// quadTexCoords maps the quad onto the textures. The bottom edge of clip
// space samples v=1, so row 0 of the output is row 0 of the inputs.
var quadTexCoords = [12]float32{
	0, 1, 1, 1, 0, 0,
	0, 0, 1, 1, 1, 0,
}

// quadVertexCount is the number of vertices drawn per render.
const quadVertexCount = 6

const vec2Stride = 8

// Geometry holds the position and texture coordinate buffers of the
// full-target quad. Both are uploaded once and reused by every render.
type Geometry struct {
	positions *wgpu.Buffer
	texCoords *wgpu.Buffer
}

// quadVertexLayout describes slot 0 (position) and slot 1 (tex_coord).
func quadVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: vec2Stride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		},
		{
			ArrayStride: vec2Stride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 1},
			},
		},
	}
}

// NewGeometry uploads the quad buffers.
func NewGeometry(device *wgpu.Device, queue *wgpu.Queue, label string) (*Geometry, error) {
	g := &Geometry{}
	var err error
	g.positions, err = uploadVertices(device, queue, label+"_positions", quadPositions[:])
	if err != nil {
		return nil, err
	}
	g.texCoords, err = uploadVertices(device, queue, label+"_texcoords", quadTexCoords[:])
	if err != nil {
		g.Release()
		return nil, err
	}
	return g, nil
}

func uploadVertices(device *wgpu.Device, queue *wgpu.Queue, label string, v []float32) (*wgpu.Buffer, error) {
	data := float32Bytes(v)
	buf, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	if err := queue.WriteBuffer(buf, 0, data); err != nil {
		buf.Release()
		return nil, fmt.Errorf("write %s: %w", label, err)
	}
	return buf, nil
}

// float32Bytes encodes v little-endian.
func float32Bytes(v []float32) []byte {
	out := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(f))
	}
	return out
}

// bind sets both vertex buffers on the pass.
func (g *Geometry) bind(rp *wgpu.RenderPassEncoder) {
	rp.SetVertexBuffer(0, g.positions, 0)
	rp.SetVertexBuffer(1, g.texCoords, 0)
}

// Release frees both buffers.
func (g *Geometry) Release() {
	if g.positions != nil {
		g.positions.Release()
		g.positions = nil
	}
	if g.texCoords != nil {
		g.texCoords.Release()
		g.texCoords = nil
	}
}
