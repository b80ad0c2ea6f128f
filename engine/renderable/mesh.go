package renderable

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/engine/buffer"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/layout"
	"github.com/Carmen-Shannon/oxy-gl/engine/vertexarray"
	"github.com/go-gl/mathgl/mgl32"
)

// Attribute locations used by the helper constructors.
const (
	LocationPosition uint32 = 0
	LocationTexCoord uint32 = 1
	LocationInstance uint32 = 1
)

// Binding slots used by the helper constructors.
const (
	SlotVertex   uint32 = 0
	SlotInstance uint32 = 1
	SlotTexCoord uint32 = 1
)

// Mesh is a Renderable that also owns the vertex array and buffers feeding it.
// Disposing a Mesh releases all of them.
type Mesh struct {
	Renderable

	// Array is the owned vertex array.
	Array vertexarray.VertexArray

	// Buffers are the owned data buffers, in upload order.
	Buffers []buffer.Buffer
}

// Dispose releases the item, its vertex array and its buffers. Calling it again does nothing.
func (m *Mesh) Dispose() {
	if m.Renderable != nil {
		m.Renderable.Dispose()
	}
	if m.Array != nil {
		m.Array.Dispose()
	}
	for _, b := range m.Buffers {
		b.Dispose()
	}
}

func vec3Bytes(n int) int { return n * layout.ModeStd430.ArrayStride(layout.KindVec3) }

// staticBuffer allocates a direct-mode vertex buffer of exactly size bytes.
func staticBuffer(device gpu.Device, label string, size int) buffer.Buffer {
	b := buffer.New(device, buffer.WithLabel(label))
	b.Allocate(size)
	return b
}

// NewPoints uploads positions and draws them as points.
//
// Parameters:
//   - device: the device to create resources on
//   - label: debug label prefix
//   - positions: one position per point, read at location 0
//   - options: renderable options
//
// Returns:
//   - *Mesh: the owning mesh
func NewPoints(device gpu.Device, label string, positions []mgl32.Vec3, options ...RenderableBuilderOption) *Mesh {
	return NewVertices(device, label, gpu.Points, positions, options...)
}

// NewVertices uploads positions and draws them with the given topology.
func NewVertices(device gpu.Device, label string, topology gpu.Topology, positions []mgl32.Vec3, options ...RenderableBuilderOption) *Mesh {
	buf := staticBuffer(device, label+" positions", vec3Bytes(len(positions)))
	buf.FillVec3s(positions)

	va := vertexarray.New(device, label)
	va.BindBuffer(SlotVertex, buf, 0, layout.ModeStd430.ArrayStride(layout.KindVec3))
	va.Attribute(SlotVertex, LocationPosition, 3, gpu.Float32, 0)

	opts := append([]RenderableBuilderOption{WithLabel(label), withVertexCount(len(positions))}, options...)
	return &Mesh{
		Renderable: New(device, va, topology, opts...),
		Array:      va,
		Buffers:    []buffer.Buffer{buf},
	}
}

// NewTextured packs positions and texture coordinates into one buffer, positions first.
// The two arrays must have the same length.
//
// Parameters:
//   - device: the device to create resources on
//   - label: debug label prefix
//   - topology: primitive topology
//   - positions: vertex positions, read at location 0
//   - texCoords: texture coordinates, read at location 1
//   - options: renderable options
//
// Returns:
//   - *Mesh: the owning mesh
func NewTextured(device gpu.Device, label string, topology gpu.Topology, positions []mgl32.Vec3, texCoords []mgl32.Vec2, options ...RenderableBuilderOption) *Mesh {
	if len(positions) != len(texCoords) {
		panic(fmt.Sprintf("renderable: %q has %d positions but %d texture coordinates", label, len(positions), len(texCoords)))
	}
	uvStride := layout.ModeStd430.ArrayStride(layout.KindVec2)
	buf := staticBuffer(device, label+" vertices", vec3Bytes(len(positions))+len(texCoords)*uvStride)
	posOff := buf.FillVec3s(positions)
	uvOff := buf.FillVec2s(texCoords)

	va := vertexarray.New(device, label)
	va.BindBuffer(SlotVertex, buf, posOff, layout.ModeStd430.ArrayStride(layout.KindVec3))
	va.BindBuffer(SlotTexCoord, buf, uvOff, uvStride)
	va.Attribute(SlotVertex, LocationPosition, 3, gpu.Float32, 0)
	va.Attribute(SlotTexCoord, LocationTexCoord, 2, gpu.Float32, 0)

	opts := append([]RenderableBuilderOption{WithLabel(label), withVertexCount(len(positions))}, options...)
	return &Mesh{
		Renderable: New(device, va, topology, opts...),
		Array:      va,
		Buffers:    []buffer.Buffer{buf},
	}
}

// NewInstanced packs per-vertex positions and per-instance vec4 offsets into one buffer.
// Each instance reads its offset at location 1.
//
// Parameters:
//   - device: the device to create resources on
//   - label: debug label prefix
//   - topology: primitive topology
//   - positions: per-vertex positions
//   - offsets: per-instance values, one per instance
//   - options: renderable options
//
// Returns:
//   - *Mesh: the owning mesh
func NewInstanced(device gpu.Device, label string, topology gpu.Topology, positions []mgl32.Vec3, offsets []mgl32.Vec4, options ...RenderableBuilderOption) *Mesh {
	vec4Stride := layout.ModeStd430.ArrayStride(layout.KindVec4)
	buf := staticBuffer(device, label+" vertices", vec3Bytes(len(positions))+len(offsets)*vec4Stride)
	posOff := buf.FillVec3s(positions)
	instOff := buf.FillVec4s(offsets)

	va := vertexarray.New(device, label)
	va.BindBuffer(SlotVertex, buf, posOff, layout.ModeStd430.ArrayStride(layout.KindVec3))
	va.BindBuffer(SlotInstance, buf, instOff, vec4Stride)
	va.Attribute(SlotVertex, LocationPosition, 3, gpu.Float32, 0)
	va.Attribute(SlotInstance, LocationInstance, 4, gpu.Float32, 0, vertexarray.WithDivisor(1))

	opts := append([]RenderableBuilderOption{
		WithLabel(label),
		withVertexCount(len(positions)),
		WithInstances(len(offsets), 0),
	}, options...)
	return &Mesh{
		Renderable: New(device, va, topology, opts...),
		Array:      va,
		Buffers:    []buffer.Buffer{buf},
	}
}

// NewInstancedMatrices uploads per-vertex positions and one transform per instance, each in
// its own buffer. The matrix rows are read at locations 1 to 4.
//
// Parameters:
//   - device: the device to create resources on
//   - label: debug label prefix
//   - topology: primitive topology
//   - positions: per-vertex positions
//   - transforms: per-instance model matrices
//   - options: renderable options
//
// Returns:
//   - *Mesh: the owning mesh
func NewInstancedMatrices(device gpu.Device, label string, topology gpu.Topology, positions []mgl32.Vec3, transforms []mgl32.Mat4, options ...RenderableBuilderOption) *Mesh {
	matStride := layout.ModeStd430.ArrayStride(layout.KindMat4)
	inst := staticBuffer(device, label+" transforms", len(transforms)*matStride)
	inst.FillMat4s(transforms)

	opts := append([]RenderableBuilderOption{WithInstances(len(transforms), 0)}, options...)
	m := NewSeparateBuffers(device, label, topology, positions, inst, opts...)
	m.Buffers = append(m.Buffers, inst)
	return m
}

// NewSeparateBuffers uploads per-vertex positions once and reads per-instance transforms
// from a caller-owned buffer. The caller rewrites that buffer as often as it likes and
// adjusts the instance count with SetInstanceCount. The instance buffer must already be
// allocated and is not released by the mesh.
//
// Parameters:
//   - device: the device to create resources on
//   - label: debug label prefix
//   - topology: primitive topology
//   - positions: per-vertex positions
//   - instances: buffer of mat4 transforms, read at locations 1 to 4
//   - options: renderable options
//
// Returns:
//   - *Mesh: the owning mesh
func NewSeparateBuffers(device gpu.Device, label string, topology gpu.Topology, positions []mgl32.Vec3, instances buffer.Buffer, options ...RenderableBuilderOption) *Mesh {
	vert := staticBuffer(device, label+" positions", vec3Bytes(len(positions)))
	vert.FillVec3s(positions)

	va := vertexarray.New(device, label)
	va.BindBuffer(SlotVertex, vert, 0, layout.ModeStd430.ArrayStride(layout.KindVec3))
	va.BindBuffer(SlotInstance, instances, 0, layout.ModeStd430.ArrayStride(layout.KindMat4))
	va.Attribute(SlotVertex, LocationPosition, 3, gpu.Float32, 0)
	va.MatrixAttribute(SlotInstance, LocationInstance, 1)

	opts := append([]RenderableBuilderOption{WithLabel(label), withVertexCount(len(positions))}, options...)
	return &Mesh{
		Renderable: New(device, va, topology, opts...),
		Array:      va,
		Buffers:    []buffer.Buffer{vert},
	}
}

// NewQuantizedPoints packs positions at 8 bytes each and draws them as points. The shader
// reads a uvec2 at location 0 and unpacks it with the same bias and scale.
//
// Parameters:
//   - device: the device to create resources on
//   - label: debug label prefix
//   - points: positions to pack
//   - bias: added to each position before scaling
//   - scale: multiplier into the 21-bit range
//   - options: renderable options
//
// Returns:
//   - *Mesh: the owning mesh
func NewQuantizedPoints(device gpu.Device, label string, points []mgl32.Vec3, bias mgl32.Vec3, scale float32, options ...RenderableBuilderOption) *Mesh {
	buf := staticBuffer(device, label+" packed", len(points)*buffer.QuantizedSize)
	buf.FillQuantized(points, bias, scale)

	va := vertexarray.New(device, label)
	va.BindBuffer(SlotVertex, buf, 0, buffer.QuantizedSize)
	va.AttributeI(SlotVertex, LocationPosition, 2, gpu.Uint32, 0)

	opts := append([]RenderableBuilderOption{WithLabel(label), withVertexCount(len(points))}, options...)
	return &Mesh{
		Renderable: New(device, va, gpu.Points, opts...),
		Array:      va,
		Buffers:    []buffer.Buffer{buf},
	}
}
