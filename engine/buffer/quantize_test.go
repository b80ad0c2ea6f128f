package buffer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestQuantizeRoundTrip(t *testing.T) {
	bias := mgl32.Vec3{100, 100, 100}
	scale := float32(QuantizeMax) / 200
	step := 1 / scale

	for _, p := range []mgl32.Vec3{
		{0, 0, 0},
		{-99.5, 42.25, 99.9},
		{12.345, -67.89, -0.001},
		{99.99, 99.99, 99.99},
	} {
		got := Dequantize(Quantize(p, bias, scale), bias, scale)
		for i := range p {
			assert.InDelta(t, p[i], got[i], float64(step), "axis %d of %v", i, p)
		}
	}
}

func TestQuantizeBitLayout(t *testing.T) {
	z := uint32(0b1010101010_11100011101)
	w := Quantize(mgl32.Vec3{5, 7, float32(z)}, mgl32.Vec3{}, 1)

	assert.Equal(t, uint32(5)|0b11100011101<<21, w[0])
	assert.Equal(t, uint32(7)|0b1010101010<<21, w[1])
	assert.Zero(t, w[1]>>31)
}

func TestQuantizeClamps(t *testing.T) {
	w := Quantize(mgl32.Vec3{-5, 1e9, 0}, mgl32.Vec3{}, 1)
	assert.Equal(t, uint32(0), w[0]&QuantizeMax)
	assert.Equal(t, uint32(QuantizeMax), w[1]&QuantizeMax)
}

func TestQuantizeAllMatchesSerial(t *testing.T) {
	points := make([]mgl32.Vec3, 3*chunkSize+17)
	for i := range points {
		f := float32(i)
		points[i] = mgl32.Vec3{f * 0.5, -f * 0.25, f * 0.125}
	}
	bias := mgl32.Vec3{0, float32(len(points)), 0}

	words := QuantizeAll(points, bias, 4)
	assert.Len(t, words, 2*len(points))
	for _, i := range []int{0, chunkSize - 1, chunkSize, 2*chunkSize + 5, len(points) - 1} {
		w := Quantize(points[i], bias, 4)
		assert.Equal(t, w[0], words[2*i], "point %d", i)
		assert.Equal(t, w[1], words[2*i+1], "point %d", i)
	}
}
