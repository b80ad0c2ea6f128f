package camera

import "github.com/go-gl/mathgl/mgl32"

// CameraBuilderOption is a functional option for configuring a Camera.
type CameraBuilderOption func(*cameraImpl)

// WithPerspective sets the projection parameters.
//
// Parameters:
//   - fov: vertical field of view in radians
//   - aspect: viewport width divided by height
//   - near, far: clip plane distances
//
// Returns:
//   - CameraBuilderOption: functional option to set the projection
func WithPerspective(fov, aspect, near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov, c.aspect, c.near, c.far = fov, aspect, near, far
	}
}

// WithRadius sets the initial orbit radius (distance from target).
//
// Parameters:
//   - radius: distance from the orbit target
//
// Returns:
//   - CameraBuilderOption: functional option to set the radius
func WithRadius(radius float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.radius = radius
	}
}

// WithAzimuth sets the initial horizontal angle around the Y axis.
//
// Parameters:
//   - azimuth: horizontal angle in radians (0 = +Z axis)
//
// Returns:
//   - CameraBuilderOption: functional option to set the azimuth
func WithAzimuth(azimuth float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.azimuth = azimuth
	}
}

// WithElevation sets the initial vertical angle from the horizontal plane.
//
// Parameters:
//   - elevation: vertical angle in radians (0 = horizontal)
//
// Returns:
//   - CameraBuilderOption: functional option to set the elevation
func WithElevation(elevation float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.elevation = elevation
	}
}

// WithTarget sets the look-at/pivot point.
func WithTarget(target mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.target = target
	}
}

// WithRadiusBounds sets the minimum and maximum orbit radius.
//
// Parameters:
//   - min: closest zoom distance
//   - max: farthest zoom distance
//
// Returns:
//   - CameraBuilderOption: functional option to set the bounds
func WithRadiusBounds(min, max float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.minRadius, c.maxRadius = min, max
	}
}

// WithElevationBounds sets the minimum and maximum elevation in radians.
func WithElevationBounds(min, max float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.minElevation, c.maxElevation = min, max
	}
}

// WithOrbitSpeed sets the radians turned by one orbit step.
func WithOrbitSpeed(speed float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.orbitSpeed = speed
	}
}

// WithZoomSpeed sets the zoom speed multiplier.
func WithZoomSpeed(speed float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.zoomSpeed = speed
	}
}
