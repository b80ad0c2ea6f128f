package camera

import (
	"math"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is an orbit camera: it looks at a target from spherical coordinates
// (radius, azimuth, elevation) and keeps a common.MatrixCalc up to date.
//
// The matrices pointer returned by Matrices stays valid for the camera's lifetime, so it can
// be handed to the engine once as the per-frame matrix value.
type Camera interface {
	// Matrices returns the live projection and view matrices.
	//
	// Returns:
	//   - *common.MatrixCalc: updated in place on every camera change
	Matrices() *common.MatrixCalc

	// Eye returns the camera's world-space position.
	Eye() mgl32.Vec3

	// Target returns the look-at point.
	Target() mgl32.Vec3

	// SetTarget moves the pivot point and recomputes the eye position.
	SetTarget(target mgl32.Vec3)

	// SetAspect rebuilds the projection for a resized viewport.
	//
	// Parameters:
	//   - aspect: viewport width divided by height; values <= 0 are ignored
	SetAspect(aspect float32)

	// Zoom adjusts the orbit radius. Positive delta moves closer to the target.
	//
	// Parameters:
	//   - delta: zoom amount scaled by the zoom speed
	Zoom(delta float32)

	// OrbitLeft rotates the camera left around the target by one orbit speed step.
	OrbitLeft()

	// OrbitRight rotates the camera right around the target by one orbit speed step.
	OrbitRight()

	// OrbitUp tilts the camera upward by one orbit speed step, clamped to max elevation.
	OrbitUp()

	// OrbitDown tilts the camera downward by one orbit speed step, clamped to min elevation.
	OrbitDown()

	// Radius returns the current distance from the target.
	Radius() float32

	// SetRadius sets the orbit radius, clamped to the radius bounds.
	SetRadius(radius float32)

	// Azimuth returns the horizontal angle around the Y axis in radians.
	Azimuth() float32

	// Elevation returns the vertical angle from the horizontal plane in radians.
	Elevation() float32

	// SetElevation sets the vertical angle, clamped to the elevation bounds.
	SetElevation(elevation float32)
}

type cameraImpl struct {
	target mgl32.Vec3
	eye    mgl32.Vec3
	up     mgl32.Vec3

	radius    float32
	azimuth   float32
	elevation float32

	minRadius    float32
	maxRadius    float32
	minElevation float32
	maxElevation float32

	orbitSpeed float32
	zoomSpeed  float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	matrices common.MatrixCalc
}

var _ Camera = &cameraImpl{}

// NewCamera creates an orbit camera with sensible defaults.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		up: mgl32.Vec3{0, 1, 0},

		radius:    14,
		elevation: 0,

		minRadius:    1,
		maxRadius:    100,
		minElevation: -float32(math.Pi/2 - 0.1),
		maxElevation: float32(math.Pi/2 - 0.1),

		orbitSpeed: 0.03,
		zoomSpeed:  1,

		fov:    float32(45.0 * math.Pi / 180.0),
		aspect: 16.0 / 9.0,
		near:   0.1,
		far:    100,
	}

	for _, option := range options {
		option(c)
	}

	c.radius = common.Clamp(c.radius, c.minRadius, c.maxRadius)
	c.elevation = common.Clamp(c.elevation, c.minElevation, c.maxElevation)
	c.updateView()
	c.matrices = common.NewMatrixCalc(c.fov, c.aspect, c.near, c.far, c.eye, c.target, c.up)
	return c
}

// updateView recomputes the eye from spherical coordinates and rebuilds the view matrix.
// Must be called whenever radius, azimuth, elevation, or target changes.
func (c *cameraImpl) updateView() {
	cosElev := float32(math.Cos(float64(c.elevation)))
	sinElev := float32(math.Sin(float64(c.elevation)))
	cosAzim := float32(math.Cos(float64(c.azimuth)))
	sinAzim := float32(math.Sin(float64(c.azimuth)))

	c.eye = c.target.Add(mgl32.Vec3{
		c.radius * cosElev * sinAzim,
		c.radius * sinElev,
		c.radius * cosElev * cosAzim,
	})
	c.matrices.View = mgl32.LookAtV(c.eye, c.target, c.up)
}

func (c *cameraImpl) Matrices() *common.MatrixCalc { return &c.matrices }

func (c *cameraImpl) Eye() mgl32.Vec3 { return c.eye }

func (c *cameraImpl) Target() mgl32.Vec3 { return c.target }

func (c *cameraImpl) SetTarget(target mgl32.Vec3) {
	c.target = target
	c.updateView()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.aspect = aspect
	c.matrices.SetAspect(c.fov, c.aspect, c.near, c.far)
}

func (c *cameraImpl) Zoom(delta float32) {
	c.SetRadius(c.radius - delta*c.zoomSpeed)
}

func (c *cameraImpl) OrbitLeft() {
	c.azimuth -= c.orbitSpeed
	c.updateView()
}

func (c *cameraImpl) OrbitRight() {
	c.azimuth += c.orbitSpeed
	c.updateView()
}

func (c *cameraImpl) OrbitUp() {
	c.SetElevation(c.elevation + c.orbitSpeed)
}

func (c *cameraImpl) OrbitDown() {
	c.SetElevation(c.elevation - c.orbitSpeed)
}

func (c *cameraImpl) Radius() float32 { return c.radius }

func (c *cameraImpl) SetRadius(radius float32) {
	c.radius = common.Clamp(radius, c.minRadius, c.maxRadius)
	c.updateView()
}

func (c *cameraImpl) Azimuth() float32 { return c.azimuth }

func (c *cameraImpl) Elevation() float32 { return c.elevation }

func (c *cameraImpl) SetElevation(elevation float32) {
	c.elevation = common.Clamp(elevation, c.minElevation, c.maxElevation)
	c.updateView()
}
