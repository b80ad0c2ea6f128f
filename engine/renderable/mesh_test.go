package renderable

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/engine/buffer"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var triangle = []mgl32.Vec3{{0, 1, 0}, {-1, -1, 0}, {1, -1, 0}}

func TestNewPoints(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	m := NewPoints(d, "stars", triangle)

	assert.Equal(t, ShapeArray, m.Shape())
	assert.Equal(t, gpu.Points, m.Topology())
	assert.Equal(t, 3, m.Count())
	assert.Equal(t, triangle[1], m.Buffers[0].ReadVec4s(16, 1)[0].Vec3())

	m.Dispose()
	m.Dispose()
	assert.Zero(t, d.LiveBuffers())
	assert.Zero(t, d.LiveVertexArrays())
	assert.NoError(t, d.CheckError())
}

func TestNewTexturedLayout(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	uvs := []mgl32.Vec2{{0.5, 1}, {0, 0}, {1, 0}}
	m := NewTextured(d, "quad", gpu.Triangles, triangle, uvs)

	state := m.Array.Bindings()
	assert.Equal(t, 0, state.Bindings[SlotVertex].Offset)
	assert.Equal(t, 48, state.Bindings[SlotTexCoord].Offset)
	assert.Equal(t, 8, state.Bindings[SlotTexCoord].Stride)
	assert.Equal(t, []float32{0, 0}, m.Buffers[0].ReadFloats(56, 2))

	assert.Panics(t, func() { NewTextured(d, "bad", gpu.Triangles, triangle, uvs[:2]) })
}

func TestNewInstancedOffsets(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	offsets := []mgl32.Vec4{{1, 0, 0, 0}, {2, 0, 0, 0}}
	m := NewInstanced(d, "field", gpu.Triangles, triangle, offsets)

	assert.Equal(t, 2, m.InstanceCount())
	state := m.Array.Bindings()
	assert.Equal(t, uint32(1), state.Bindings[SlotInstance].Divisor)
	assert.Equal(t, 48, state.Bindings[SlotInstance].Offset)
	assert.Equal(t, offsets, m.Buffers[0].ReadVec4s(48, 2))

	d.ResetTrace()
	m.Bind(Frame{})
	m.Render()
	assert.Equal(t, gpu.DrawStats{DrawCalls: 1, Vertices: 6, Instances: 2}, d.Stats())
}

func TestNewInstancedMatrices(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	transforms := []mgl32.Mat4{mgl32.Translate3D(1, 2, 3), mgl32.Ident4(), mgl32.Scale3D(2, 2, 2)}
	m := NewInstancedMatrices(d, "cubes", gpu.Triangles, triangle, transforms)

	require.Len(t, m.Buffers, 2)
	assert.Equal(t, 3, m.InstanceCount())
	assert.Equal(t, transforms[2], m.Buffers[1].ReadMat4(128))
	assert.Equal(t, []uint32{1, 2, 3, 4}, m.Array.Bindings().AttribsForSlot(SlotInstance))

	m.Dispose()
	assert.Zero(t, d.LiveBuffers())
}

func TestNewSeparateBuffersKeepsCallerBuffer(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	inst := buffer.New(d, buffer.WithLabel("per-frame"), buffer.WithSize(4*64))
	m := NewSeparateBuffers(d, "dynamic", gpu.Triangles, triangle, inst, WithInstances(0, 0))

	w := inst.Map(0, 2*64)
	w.WriteMat4(mgl32.Ident4())
	w.WriteMat4(mgl32.Translate3D(0, 1, 0))
	inst.UnMap()
	m.SetInstanceCount(2)

	d.ResetTrace()
	m.Bind(Frame{})
	m.Render()
	assert.Equal(t, 2, d.Stats().Instances)
	assert.Equal(t, inst.ID(), m.Array.Bindings().Bindings[SlotInstance].Buffer)

	m.Dispose()
	assert.Equal(t, 1, d.LiveBuffers())
}

func TestNewQuantizedPoints(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	bias := mgl32.Vec3{10, 10, 10}
	scale := float32(1000)
	m := NewQuantizedPoints(d, "packed", triangle, bias, scale)

	a := m.Array.Bindings().Attribs[LocationPosition]
	assert.True(t, a.Integer)
	assert.Equal(t, 2, a.Count)
	assert.Equal(t, buffer.QuantizedSize, m.Array.Bindings().Bindings[SlotVertex].Stride)
	assert.Equal(t, len(triangle)*buffer.QuantizedSize, m.Buffers[0].Size())

	raw := m.Buffers[0].ReadInts(8, 2)
	got := buffer.Dequantize([2]uint32{uint32(raw[0]), uint32(raw[1])}, bias, scale)
	for i := range got {
		assert.InDelta(t, triangle[1][i], got[i], 1.0/float64(scale))
	}
}

func TestIndexedHelpersCountElements(t *testing.T) {
	corners := []mgl32.Vec3{{-1, -1, 0}, {1, -1, 0}, {1, 1, 0}, {-1, 1, 0}}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	elements := WithElements(indices)

	for name, build := range map[string]func(d gpu.Device) *Mesh{
		"points": func(d gpu.Device) *Mesh { return NewPoints(d, "points", corners, elements) },
		"vertices": func(d gpu.Device) *Mesh {
			return NewVertices(d, "quad", gpu.Triangles, corners, elements)
		},
		"textured": func(d gpu.Device) *Mesh {
			uvs := []mgl32.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
			return NewTextured(d, "quad", gpu.Triangles, corners, uvs, elements)
		},
		"instanced": func(d gpu.Device) *Mesh {
			return NewInstanced(d, "quads", gpu.Triangles, corners, []mgl32.Vec4{{}, {1, 0, 0, 0}}, elements)
		},
		"matrices": func(d gpu.Device) *Mesh {
			return NewInstancedMatrices(d, "quads", gpu.Triangles, corners, []mgl32.Mat4{mgl32.Ident4(), mgl32.Ident4()}, elements)
		},
		"separate": func(d gpu.Device) *Mesh {
			inst := buffer.New(d, buffer.WithSize(2*64))
			return NewSeparateBuffers(d, "quads", gpu.Triangles, corners, inst, WithInstances(2, 0), elements)
		},
		"quantized": func(d gpu.Device) *Mesh {
			return NewQuantizedPoints(d, "packed", corners, mgl32.Vec3{1, 1, 1}, 100, elements)
		},
	} {
		t.Run(name, func(t *testing.T) {
			d := gpu.NewSoftwareDevice()
			m := build(d)

			assert.Equal(t, ShapeElements, m.Shape())
			assert.Equal(t, len(indices), m.Count())

			d.ResetTrace()
			m.Bind(Frame{})
			m.Render()
			stats := d.Stats()
			assert.Equal(t, 1, stats.DrawCalls)
			assert.Equal(t, len(indices)*m.InstanceCount(), stats.Vertices)
			assert.NoError(t, d.CheckError())
		})
	}
}

func TestIndexedIndirectHelper(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	m := NewVertices(d, "batch", gpu.Triangles, triangle,
		WithElements([]uint32{0, 1, 2}),
		WithIndirectElements([]DrawElementsCommand{{Count: 3, InstanceCount: 1}}),
	)

	assert.Equal(t, ShapeIndirectElements, m.Shape())
	assert.Equal(t, 3, m.Count())
}

func TestHelperCountOverride(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	m := NewVertices(d, "partial", gpu.Triangles, triangle, WithElements([]uint32{0, 1, 2, 0, 2, 1}), WithCount(3))
	assert.Equal(t, 3, m.Count())

	arrays := NewVertices(d, "plain", gpu.Triangles, triangle)
	assert.Equal(t, len(triangle), arrays.Count())
}
