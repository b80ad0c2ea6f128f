package layout

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

func need(b []byte, off, size int) {
	if off < 0 || off+size > len(b) {
		panic(fmt.Sprintf("layout: decode [%d, %d) outside %d bytes", off, off+size, len(b)))
	}
}

// Uint32At decodes a little-endian uint32 at off.
func Uint32At(b []byte, off int) uint32 {
	need(b, off, scalarSize)
	return binary.LittleEndian.Uint32(b[off:])
}

// Int32At decodes a little-endian int32 at off.
func Int32At(b []byte, off int) int32 {
	return int32(Uint32At(b, off))
}

// Float32At decodes a little-endian float32 at off.
func Float32At(b []byte, off int) float32 {
	return math.Float32frombits(Uint32At(b, off))
}

// Vec4At decodes four consecutive float32 values at off.
func Vec4At(b []byte, off int) mgl32.Vec4 {
	need(b, off, vec4Size)
	var v mgl32.Vec4
	for i := range v {
		v[i] = Float32At(b, off+i*scalarSize)
	}
	return v
}

// Mat4At decodes a column-major 4x4 matrix at off.
func Mat4At(b []byte, off int) mgl32.Mat4 {
	need(b, off, mat4Size)
	var m mgl32.Mat4
	for i := range m {
		m[i] = Float32At(b, off+i*scalarSize)
	}
	return m
}

// Float32s decodes every whole 4-byte scalar in b as float32.
func Float32s(b []byte) []float32 {
	out := make([]float32, len(b)/scalarSize)
	for i := range out {
		out[i] = Float32At(b, i*scalarSize)
	}
	return out
}

// Int32s decodes every whole 4-byte scalar in b as int32.
func Int32s(b []byte) []int32 {
	out := make([]int32, len(b)/scalarSize)
	for i := range out {
		out[i] = Int32At(b, i*scalarSize)
	}
	return out
}

// Vec4s decodes every whole 16-byte group in b as a 4-vector.
func Vec4s(b []byte) []mgl32.Vec4 {
	out := make([]mgl32.Vec4, len(b)/vec4Size)
	for i := range out {
		out[i] = Vec4At(b, i*vec4Size)
	}
	return out
}
