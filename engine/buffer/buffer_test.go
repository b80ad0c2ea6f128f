package buffer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/layout"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheModeCompleteAndRead(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	b := New(d, WithCache(), WithLabel("vec4s"))
	c := b.Cache()
	c.WriteVec4(mgl32.Vec4{1, 2, 3, 4})
	c.WriteVec4(mgl32.Vec4{5, 6, 7, 8})
	c.WriteVec4(mgl32.Vec4{9, 10, 11, 12})

	require.Equal(t, 48, b.Complete())
	assert.Equal(t, []mgl32.Vec4{{5, 6, 7, 8}}, b.ReadVec4s(16, 1))
	assert.Equal(t, []float32{5, 6, 7, 8}, b.ReadFloats(16, 4))
	assert.Equal(t, []int{0, 16, 32}, b.Positions())
	assert.NoError(t, d.CheckError())
}

func TestDirectModeIdentityMatrix(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	b := New(d)
	b.Allocate(64)
	off := b.FillMat4s([]mgl32.Mat4{mgl32.Ident4()})

	assert.Equal(t, 0, off)
	assert.Equal(t, []float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}, b.ReadFloats(0, 16))
	assert.Equal(t, mgl32.Ident4(), b.ReadMat4(0))
}

func TestWriteThroughLeavesOtherBytes(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	b := New(d, WithCache())
	c := b.Cache()
	for i := 0; i < 4; i++ {
		c.WriteVec4(mgl32.Vec4{float32(i), float32(i), float32(i), float32(i)})
	}
	b.Complete()
	before := b.ReadBuffer(0, b.Size())

	d.ResetTrace()
	c.WriteFloat(99, layout.At(20), layout.Through())
	after := b.ReadBuffer(0, b.Size())

	assert.Equal(t, before[:20], after[:20])
	assert.Equal(t, before[24:], after[24:])
	assert.Equal(t, float32(99), layout.Float32At(after, 20))
	assert.Equal(t, gpu.Call{
		Op:   gpu.OpMapBufferRange,
		Args: []int{int(b.ID()), 20, 4, int(gpu.MapWrite | gpu.MapInvalidateRange)},
	}, d.Trace()[0])
}

func TestCacheWriteWithoutThroughStaysLocal(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	b := New(d, WithCache())
	b.Cache().WriteFloats([]float32{1, 2})
	b.Complete()

	b.Cache().WriteFloat(7, layout.At(0))
	assert.Equal(t, []float32{1, 2}, b.ReadFloats(0, 2))
	b.Update()
	assert.Equal(t, []float32{7, 2}, b.ReadFloats(0, 2))
}

func TestFillAlignment(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	b := New(d, WithMode(layout.ModeStd140), WithSize(256))

	assert.Equal(t, 0, b.FillFloats([]float32{1}))
	assert.Equal(t, 16, b.FillVec2s([]mgl32.Vec2{{1, 2}, {3, 4}}))
	assert.Equal(t, 48, b.FillVec3s([]mgl32.Vec3{{1, 2, 3}}))
	assert.Equal(t, 64, b.FillUint16s([]uint16{1, 2, 3}))
	assert.Equal(t, 72, b.FillQuantized([]mgl32.Vec3{{0, 0, 0}}, mgl32.Vec3{}, 1))
	assert.Equal(t, 80, b.CurrentPos())
	assert.Equal(t, []int{0, 16, 48, 64, 72}, b.Positions())
	assert.Equal(t, []float32{3, 4}, b.ReadFloats(32, 2))

	assert.Panics(t, func() { b.FillMat4s(make([]mgl32.Mat4, 3)) })
}

func TestAllocateDiscardsContents(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	b := New(d)
	b.Allocate(16)
	b.FillUints([]uint32{1, 2, 3, 4})
	b.Allocate(16)

	assert.Equal(t, 0, b.CurrentPos())
	assert.Empty(t, b.Positions())
	assert.Equal(t, []int32{0, 0, 0, 0}, b.ReadInts(0, 4))
}

func TestModesAreExclusive(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	cached := New(d, WithCache())
	direct := New(d)

	assert.Panics(t, func() { cached.Allocate(16) })
	assert.Panics(t, func() { direct.Cache() })
	assert.Panics(t, func() { direct.FillFloats([]float32{1}) })
}

func TestMapWritesSequentially(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	b := New(d, WithSize(96))
	w := b.Map(16, 80)
	w.WriteFloat(2)
	w.WriteMat4(mgl32.Scale3D(2, 3, 4))
	b.UnMap()

	assert.Equal(t, float32(2), b.ReadFloats(16, 1)[0])
	assert.Equal(t, mgl32.Scale3D(2, 3, 4), b.ReadMat4(32))
	assert.Panics(t, b.UnMap)
}

func TestZeroAndBindingSize(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	b := New(d, WithSize(20))
	b.FillFloats([]float32{1, 2, 3, 4, 5})
	b.Zero()

	assert.Equal(t, make([]float32, 5), b.ReadFloats(0, 5))
	assert.Equal(t, 32, b.BindingSize())
}

func TestDisposeIsIdempotent(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	b := New(d, WithSize(8))
	require.Equal(t, 1, d.LiveBuffers())

	b.Dispose()
	b.Dispose()
	assert.Zero(t, d.LiveBuffers())
	assert.NoError(t, d.CheckError())
	assert.Panics(t, func() { b.Allocate(8) })
}

func TestReadBufferCopiesWithoutMapping(t *testing.T) {
	d := gpu.NewSoftwareDevice()
	b := New(d, WithSize(16))
	b.FillFloats([]float32{1, 2, 3, 4})

	d.ResetTrace()
	assert.Equal(t, []float32{2, 3}, b.ReadFloats(4, 2))
	assert.Equal(t, []gpu.Call{{
		Op:   gpu.OpGetBufferSubData,
		Args: []int{int(b.ID()), 4, 8},
	}}, d.Trace())
	assert.Empty(t, b.ReadBuffer(0, 0))
	assert.NoError(t, d.CheckError())
}
