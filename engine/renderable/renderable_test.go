package renderable

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/engine/buffer"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/vertexarray"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var drawOps = []string{
	gpu.OpDrawArrays,
	gpu.OpDrawElements,
	gpu.OpDrawArraysIndirect,
	gpu.OpDrawElementsIndirect,
}

type textureStub struct{ slots []uint32 }

func (t *textureStub) Bind(slot uint32) { t.slots = append(t.slots, slot) }

func newVertexArray(d gpu.Device) vertexarray.VertexArray {
	buf := buffer.New(d, buffer.WithSize(64))
	va := vertexarray.New(d, "quad")
	va.BindBuffer(0, buf, 0, 16)
	va.Attribute(0, 0, 3, gpu.Float32, 0)
	return va
}

func draw(r Renderable) {
	r.Bind(Frame{})
	r.Render()
}

func TestSelectShapeTable(t *testing.T) {
	assert.Equal(t, ShapeArray, SelectShape(false, false))
	assert.Equal(t, ShapeElements, SelectShape(true, false))
	assert.Equal(t, ShapeIndirectArray, SelectShape(false, true))
	assert.Equal(t, ShapeIndirectElements, SelectShape(true, true))
	assert.True(t, ShapeIndirectElements.Indexed())
	assert.False(t, ShapeElements.Indirect())
}

func TestShapeFollowsAttachedBuffers(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	va := newVertexArray(d)
	indices := []uint32{0, 1, 2, 2, 1, 3}

	items := []Renderable{
		New(d, va, gpu.Triangles, WithCount(4)),
		New(d, va, gpu.Triangles, WithElements(indices)),
		New(d, va, gpu.Triangles, WithElements(indices), WithIndirectElements([]DrawElementsCommand{
			{Count: 6, InstanceCount: 1},
			{Count: 3, InstanceCount: 2, FirstIndex: 3},
		})),
	}
	d.ResetTrace()
	for _, item := range items {
		draw(item)
	}

	assert.Equal(t, []string{gpu.OpDrawArrays, gpu.OpDrawElements, gpu.OpDrawElementsIndirect}, d.Ops(drawOps...))
	assert.Equal(t, ShapeIndirectElements, items[2].Shape())
	assert.Equal(t, gpu.DrawStats{DrawCalls: 3, Vertices: 4 + 6 + 6 + 6, Instances: 1 + 1 + 3}, d.Stats())
}

func TestIndirectArrays(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	r := New(d, newVertexArray(d), gpu.Points,
		WithIndirectArrays([]DrawArraysCommand{{Count: 2, InstanceCount: 1}, {Count: 1, InstanceCount: 4, First: 2}}),
		WithIndirectOffset(8),
	)
	require.Equal(t, ShapeIndirectArray, r.Shape())
	d.ResetTrace()
	draw(r)

	calls := d.Trace()
	last := calls[len(calls)-1]
	assert.Equal(t, gpu.Call{Op: gpu.OpDrawArraysIndirect, Args: []int{int(gpu.Points), 8, 2, gpu.DrawArraysCommandSize}}, last)
	assert.Equal(t, 8+2*gpu.DrawArraysCommandSize, r.Indirect().Size())

	r.SetDrawCount(1)
	draw(r)
	assert.Equal(t, 2+4+2, d.Stats().Vertices)
	assert.Panics(t, func() { r.SetDrawCount(3) })
}

func TestIndexWidth(t *testing.T) {
	full := gpu.NewSoftwareDevice()
	noBytes := gpu.NewSoftwareDevice(gpu.WithCapabilities(gpu.Capabilities{}))

	assert.Equal(t, gpu.IndexUint8, New(full, nil, gpu.Triangles, WithElements([]uint32{0, 255})).IndexType())
	assert.Equal(t, gpu.IndexUint16, New(full, nil, gpu.Triangles, WithElements([]uint32{0, 256})).IndexType())
	assert.Equal(t, gpu.IndexUint32, New(full, nil, gpu.Triangles, WithElements([]uint32{70000})).IndexType())

	r := New(noBytes, nil, gpu.Triangles, WithElements([]uint32{0, 1, 2}))
	assert.Equal(t, gpu.IndexUint16, r.IndexType())
	assert.Equal(t, []byte{0, 0, 1, 0, 2, 0}, r.Elements().ReadBuffer(0, 6))
	assert.NotPanics(t, func() { draw(r) })
}

func TestElementsDrawArguments(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	r := New(d, newVertexArray(d), gpu.Triangles,
		WithElements([]uint32{0, 1, 2, 3, 4, 5, 300}),
		WithCount(3),
		WithBaseIndex(3),
		WithBaseVertex(10),
		WithInstances(5, 2),
	)
	d.ResetTrace()
	draw(r)

	calls := d.Trace()
	assert.Equal(t, gpu.Call{
		Op:   gpu.OpDrawElements,
		Args: []int{int(gpu.Triangles), 3, int(gpu.IndexUint16), 6, 5, 10, 2},
	}, calls[len(calls)-1])
}

func TestBindOrder(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	tex := &textureStub{}
	var seen []string
	r := New(d, newVertexArray(d), gpu.Triangles,
		WithElements([]uint32{0, 1, 2}),
		WithBindCallback(func(item Renderable, frame Frame) {
			seen = d.Ops(gpu.OpBindVertexArray, gpu.OpBindElementBuffer)
			assert.Equal(t, uint64(7), frame.Index)
		}),
		WithTexture(3, tex),
	)
	d.ResetTrace()
	r.Bind(Frame{Index: 7})

	assert.Equal(t, []string{gpu.OpBindVertexArray}, seen)
	assert.Equal(t, []string{gpu.OpBindVertexArray, gpu.OpBindElementBuffer}, d.Ops(gpu.OpBindVertexArray, gpu.OpBindElementBuffer))
	assert.Equal(t, []uint32{3}, tex.slots)
}

func TestInvalidCombinationsPanic(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	assert.Panics(t, func() {
		New(d, nil, gpu.Triangles, WithIndirectElements([]DrawElementsCommand{{Count: 3}}))
	})
	assert.Panics(t, func() {
		New(d, nil, gpu.Triangles, WithElements([]uint32{0}), WithIndirectArrays([]DrawArraysCommand{{Count: 3}}))
	})
	assert.Panics(t, func() {
		New(d, nil, gpu.Points, WithIndirectArrays([]DrawArraysCommand{{Count: 1}}), WithIndirectOffset(2))
	})
	assert.Panics(t, func() { New(d, nil, gpu.Triangles, WithElements([]uint32{})) })
}

func TestDisposeReleasesOwnedBuffersOnly(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	va := newVertexArray(d)
	r := New(d, va, gpu.Triangles,
		WithElements([]uint32{0, 1, 2}),
		WithIndirectElements([]DrawElementsCommand{{Count: 3, InstanceCount: 1}}),
	)
	require.Equal(t, 3, d.LiveBuffers())

	r.Dispose()
	r.Dispose()
	assert.Equal(t, 1, d.LiveBuffers())
	assert.Equal(t, 1, d.LiveVertexArrays())
	assert.NoError(t, d.CheckError())
	assert.Panics(t, func() { r.Bind(Frame{}) })
	assert.Panics(t, r.Render)
}

func TestRenderAfterDisposePanics(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	r := New(d, newVertexArray(d), gpu.Triangles, WithCount(3))
	r.Dispose()

	d.ResetTrace()
	assert.PanicsWithValue(t, `renderable: Render on disposed item "renderable"`, r.Render)
	assert.Zero(t, d.Stats().DrawCalls)
}

func TestNegativeCountsPanic(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	r := New(d, newVertexArray(d), gpu.Triangles, WithCount(3))

	assert.Panics(t, func() { r.SetCount(-1) })
	assert.Panics(t, func() { r.SetInstanceCount(-1) })
	assert.Equal(t, 3, r.Count())
	assert.Equal(t, 1, r.InstanceCount())

	r.SetCount(0)
	r.SetInstanceCount(0)
	assert.Zero(t, r.Count())
	assert.Zero(t, r.InstanceCount())
}
