package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MatrixCalc is the per-frame camera state handed to bind callbacks.
// The render core passes it through untouched; only shaders and callbacks interpret it.
type MatrixCalc struct {
	Projection mgl32.Mat4
	View       mgl32.Mat4
}

// NewMatrixCalc builds a perspective camera looking from eye towards center.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport width divided by height
//   - near, far: clip plane distances
//   - eye, center, up: camera placement
//
// Returns:
//   - MatrixCalc: projection and view matrices, column-major
func NewMatrixCalc(fovY, aspect, near, far float32, eye, center, up mgl32.Vec3) MatrixCalc {
	return MatrixCalc{
		Projection: mgl32.Perspective(fovY, aspect, near, far),
		View:       mgl32.LookAtV(eye, center, up),
	}
}

// ViewProjection returns Projection * View.
func (m MatrixCalc) ViewProjection() mgl32.Mat4 {
	return m.Projection.Mul4(m.View)
}

// SetAspect rebuilds the projection for a resized viewport.
func (m *MatrixCalc) SetAspect(fovY, aspect, near, far float32) {
	m.Projection = mgl32.Perspective(fovY, aspect, near, far)
}

// ModelMatrix constructs a model matrix from position, Euler rotation and scale.
// The rotation order is Y * X * Z (yaw-pitch-roll).
//
// Parameters:
//   - pos: translation in world space
//   - rot: rotation angles in radians around each axis
//   - scale: scale factors along each axis
//
// Returns:
//   - mgl32.Mat4: the column-major model matrix
func ModelMatrix(pos, rot, scale mgl32.Vec3) mgl32.Mat4 {
	r := mgl32.HomogRotate3DY(rot.Y()).
		Mul4(mgl32.HomogRotate3DX(rot.X())).
		Mul4(mgl32.HomogRotate3DZ(rot.Z()))
	return mgl32.Translate3D(pos.X(), pos.Y(), pos.Z()).
		Mul4(r).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z()))
}
