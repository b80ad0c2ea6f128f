package common

import (
	"log/slog"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 3, 4))
	assert.Equal(t, "a", Coalesce("", "a"))
	assert.Zero(t, Coalesce[int]())
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 2, Clamp(5, 0, 2))
	assert.Equal(t, float32(-1), Clamp(float32(-3), -1, 1))
	assert.Equal(t, 0.5, Clamp(0.5, 0, 1))
	assert.Equal(t, 4, Clamp(3, 4, 1))
}

func TestDigitKey(t *testing.T) {
	n, ok := DigitKey(Key1)
	assert.True(t, ok)
	assert.Equal(t, 1, n)
	n, ok = DigitKey(Key9)
	assert.True(t, ok)
	assert.Equal(t, 9, n)
	_, ok = DigitKey(48)
	assert.False(t, ok)
	_, ok = DigitKey(KeySpace)
	assert.False(t, ok)
}

func TestModelMatrix(t *testing.T) {
	m := ModelMatrix(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, float32(math.Pi / 2), 0}, mgl32.Vec3{2, 2, 2})
	p := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.InDelta(t, 1, p.X(), 1e-5)
	assert.InDelta(t, 2, p.Y(), 1e-5)
	assert.InDelta(t, 1, p.Z(), 1e-5)
}

func TestMatrixCalc(t *testing.T) {
	m := NewMatrixCalc(1, 2, 0.1, 10, mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	assert.Equal(t, m.Projection.Mul4(m.View), m.ViewProjection())
	m.SetAspect(1, 1, 0.1, 10)
	assert.Equal(t, mgl32.Perspective(1, 1, 0.1, 10), m.Projection)
}

func TestLoggerIsSilentByDefault(t *testing.T) {
	assert.False(t, Logger().Enabled(t.Context(), slog.LevelError))
	SetLogger(slog.Default())
	assert.Same(t, slog.Default(), Logger())
	SetLogger(nil)
	assert.False(t, Logger().Enabled(t.Context(), slog.LevelError))
}
