package layout

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVec3ThenScalarUsesFullSlot(t *testing.T) {
	for _, mode := range []Mode{ModeStd430, ModeStd140} {
		t.Run(mode.String(), func(t *testing.T) {
			c := NewCache(mode)
			c.WriteFloat(1)
			v := c.WriteVec3(mgl32.Vec3{1, 2, 3})
			s := c.WriteFloat(4)

			assert.Equal(t, 16, v)
			assert.Equal(t, v+16, s)
			assert.Equal(t, []int{0, 16, 32}, c.Positions())
		})
	}
}

func TestVec2ArrayStride(t *testing.T) {
	points := []mgl32.Vec2{{1, 2}, {3, 4}, {5, 6}}

	padded := NewCache(ModeStd140)
	padded.WriteVec2s(points)
	assert.Equal(t, len(points)*16, padded.Commit())
	assert.Equal(t, float32(3), Float32At(padded.Bytes(), 16))

	tight := NewCache(ModeStd430)
	tight.WriteVec2s(points)
	assert.Equal(t, len(points)*8, tight.Commit())
	assert.Equal(t, float32(3), Float32At(tight.Bytes(), 8))
}

func TestScalarArrayStride(t *testing.T) {
	padded := NewCache(ModeStd140)
	padded.WriteFloat(9)
	off := padded.WriteFloats([]float32{1, 2})
	assert.Equal(t, 16, off)
	assert.Equal(t, 48, padded.CurrentPos())

	tight := NewCache(ModeStd430)
	tight.WriteFloat(9)
	off = tight.WriteInts([]int32{-1, 2})
	assert.Equal(t, 4, off)
	assert.Equal(t, 12, tight.CurrentPos())
	assert.Equal(t, int32(-1), Int32At(tight.Bytes(), 4))
}

func TestMat4RoundTrip(t *testing.T) {
	m := mgl32.Translate3D(1.5, -2.25, 3).Mul4(mgl32.HomogRotate3DY(0.7))
	c := NewCache(ModeStd430)
	c.WriteVec2(mgl32.Vec2{1, 1})
	off := c.WriteMat4(m)

	require.Equal(t, 16, off)
	assert.Equal(t, m, Mat4At(c.Bytes(), off))
}

func TestExplicitWriteKeepsCursor(t *testing.T) {
	c := NewCache(ModeStd430)
	c.WriteVec4(mgl32.Vec4{1, 2, 3, 4})
	c.WriteVec4(mgl32.Vec4{5, 6, 7, 8})
	c.Commit()

	off := c.WriteFloat(42, At(20))
	assert.Equal(t, 20, off)
	assert.Equal(t, 32, c.CurrentPos())
	assert.Len(t, c.Positions(), 2)
	assert.Equal(t, mgl32.Vec4{5, 42, 7, 8}, Vec4At(c.Bytes(), 16))
}

func TestGrowthKeepsContents(t *testing.T) {
	c := NewCache(ModeStd430, WithCapacity(8))
	c.WriteUint(7)
	for i := 0; i < 40; i++ {
		c.WriteMat4(mgl32.Ident4())
	}

	assert.False(t, c.Committed())
	assert.Zero(t, c.Size())
	assert.Equal(t, uint32(7), Uint32At(c.Bytes(), 0))
	assert.Equal(t, 16+40*64, c.Commit())
	assert.Equal(t, mgl32.Ident4(), Mat4At(c.Bytes(), 16+39*64))
}

func TestWriteAfterCommitMustFit(t *testing.T) {
	c := NewCache(ModeStd140)
	c.WriteVec4(mgl32.Vec4{})
	c.Commit()

	assert.NotPanics(t, func() { c.WriteFloat(1, At(12)) })
	assert.Panics(t, func() { c.WriteFloat(1) })
	assert.Panics(t, func() { c.WriteVec2(mgl32.Vec2{}, At(12)) })
}

func TestWriteThroughReachesSink(t *testing.T) {
	type span struct{ off, size int }
	var got []span
	c := NewCache(ModeStd430, WithSink(func(off int, data []byte) {
		got = append(got, span{off, len(data)})
	}))
	c.WriteVec3s([]mgl32.Vec3{{1, 2, 3}, {4, 5, 6}}, Through())
	assert.Empty(t, got)

	c.Commit()
	c.WriteVec3(mgl32.Vec3{7, 8, 9}, At(16), Through())
	c.WriteFloat(1, At(0))
	assert.Equal(t, []span{{16, 16}}, got)
}

func TestFixedCache(t *testing.T) {
	mem := make([]byte, 32)
	c := NewFixedCache(ModeStd430, mem)
	require.True(t, c.Committed())
	assert.Equal(t, 32, c.Size())

	c.WriteFloat(1)
	c.WriteVec4(mgl32.Vec4{2, 3, 4, 5})
	assert.Equal(t, float32(1), Float32At(mem, 0))
	assert.Equal(t, mgl32.Vec4{2, 3, 4, 5}, Vec4At(mem, 16))
	assert.Panics(t, func() { c.WriteFloat(6) })

	c.Reset()
	assert.Equal(t, 0, c.CurrentPos())
	assert.Equal(t, 32, c.Size())
}

func TestReset(t *testing.T) {
	c := NewCache(ModeStd430)
	c.WriteBytes([]byte{1, 2, 3}, 1)
	c.Commit()
	c.Reset()

	assert.False(t, c.Committed())
	assert.Empty(t, c.Bytes())
	assert.Equal(t, 4, c.WriteBytes([]byte{1}, 4, At(4)))
}
