package vertexarray

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/engine/buffer"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var setupOps = []string{
	gpu.OpVertexBuffer,
	gpu.OpAttribFormat,
	gpu.OpAttribIFormat,
	gpu.OpAttribBinding,
	gpu.OpEnableAttrib,
	gpu.OpBindingDivisor,
}

func TestAttributeOrder(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	buf := buffer.New(d, buffer.WithSize(64))
	va := New(d, "instanced")
	va.BindBuffer(1, buf, 0, 16)

	d.ResetTrace()
	va.Attribute(1, 2, 4, gpu.Float32, 0, WithDivisor(1))

	assert.Equal(t, []string{
		gpu.OpAttribFormat,
		gpu.OpAttribBinding,
		gpu.OpEnableAttrib,
		gpu.OpBindingDivisor,
	}, d.Ops(setupOps...))

	state, ok := d.VertexArray(va.ID())
	require.True(t, ok)
	assert.Equal(t, uint32(1), state.Bindings[1].Divisor)
	assert.Equal(t, uint32(1), state.Attribs[2].Slot)
	assert.True(t, state.Attribs[2].Enabled)
}

func TestBindBufferReappliesDivisor(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	first := buffer.New(d, buffer.WithSize(64))
	second := buffer.New(d, buffer.WithSize(64))
	va := New(d, "swap")
	va.BindBuffer(0, first, 0, 16)
	va.Attribute(0, 0, 4, gpu.Float32, 0, WithDivisor(2))

	d.ResetTrace()
	va.BindBuffer(0, second, 16, 16)

	assert.Equal(t, []string{gpu.OpVertexBuffer, gpu.OpBindingDivisor}, d.Ops(setupOps...))
	assert.Equal(t, gpu.VertexBinding{Buffer: second.ID(), Offset: 16, Stride: 16, Divisor: 2}, va.Bindings().Bindings[0])
	d2, ok := va.Divisor(0)
	assert.True(t, ok)
	assert.Equal(t, uint32(2), d2)
}

func TestBindBufferRequiresStorage(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	va := New(d, "early")
	assert.Panics(t, func() { va.BindBuffer(0, buffer.New(d), 0, 16) })
}

func TestIntegerPath(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	buf := buffer.New(d, buffer.WithSize(32))
	va := New(d, "packed")
	va.BindBuffer(0, buf, 0, 8)
	va.AttributeI(0, 0, 2, gpu.Uint32, 0)

	assert.Equal(t, []string{gpu.OpAttribIFormat}, d.Ops(gpu.OpAttribFormat, gpu.OpAttribIFormat))
	assert.True(t, va.Bindings().Attribs[0].Integer)
	_, ok := va.Divisor(0)
	assert.False(t, ok)

	assert.Panics(t, func() { va.AttributeI(0, 1, 1, gpu.Float32, 0) })
	assert.Panics(t, func() { va.AttributeI(0, 1, 1, gpu.Uint8, 0, WithNormalized()) })
}

func TestNormalizedColor(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	va := New(d, "colors")
	va.Attribute(0, 3, 4, gpu.Uint8, 12, WithNormalized())

	a := va.Bindings().Attribs[3]
	assert.True(t, a.Normalized)
	assert.False(t, a.Integer)
	assert.Equal(t, 12, a.RelOffset)
}

func TestMatrixAttribute(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	buf := buffer.New(d, buffer.WithSize(128))
	va := New(d, "transforms")
	va.BindBuffer(2, buf, 0, 64)
	va.MatrixAttribute(2, 4, 1)

	state := va.Bindings()
	assert.Equal(t, []uint32{4, 5, 6, 7}, state.AttribsForSlot(2))
	for row := uint32(0); row < 4; row++ {
		a := state.Attribs[4+row]
		assert.Equal(t, int(row)*MatrixRowSize, a.RelOffset)
		assert.Equal(t, 4, a.Count)
	}
	assert.Equal(t, uint32(1), state.Bindings[2].Divisor)
}

func TestConflictingDivisorPanics(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	va := New(d, "conflict")
	va.Attribute(0, 0, 4, gpu.Float32, 0, WithDivisor(1))
	assert.NotPanics(t, func() { va.Attribute(0, 1, 4, gpu.Float32, 16, WithDivisor(1)) })
	assert.Panics(t, func() { va.Attribute(0, 2, 4, gpu.Float32, 32, WithDivisor(0)) })
}

func TestDispose(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	buf := buffer.New(d, buffer.WithSize(16))
	va := New(d, "gone")
	va.BindBuffer(0, buf, 0, 16)

	va.Dispose()
	va.Dispose()
	assert.Zero(t, d.LiveVertexArrays())
	assert.Equal(t, 1, d.LiveBuffers())
	assert.NoError(t, d.CheckError())
	assert.Panics(t, va.Bind)
}
