package gpu

// SoftwareDeviceOption is a functional option for configuring a software device.
type SoftwareDeviceOption func(*softwareDeviceImpl)

// WithCapabilities overrides the capabilities a software device reports.
// Tests use it to imitate backends without uint8 indices or base instance support.
//
// Parameters:
//   - caps: the capabilities to report
//
// Returns:
//   - SoftwareDeviceOption: option function to apply
func WithCapabilities(caps Capabilities) SoftwareDeviceOption {
	return func(d *softwareDeviceImpl) {
		d.caps = caps
	}
}

// GLDeviceOption is a functional option for configuring an OpenGL device.
type GLDeviceOption func(*glDeviceImpl)

// WithClearColor sets the color the default framebuffer is cleared to at BeginFrame.
//
// Parameters:
//   - r, g, b, a: color components in [0,1]
//
// Returns:
//   - GLDeviceOption: option function to apply
func WithClearColor(r, g, b, a float32) GLDeviceOption {
	return func(d *glDeviceImpl) {
		d.clearColor = [4]float32{r, g, b, a}
	}
}

// WithDebugLabels attaches debug labels to created objects through glObjectLabel.
//
// Returns:
//   - GLDeviceOption: option function to apply
func WithDebugLabels() GLDeviceOption {
	return func(d *glDeviceImpl) {
		d.labels = true
	}
}

// WGPUDeviceOption is a functional option for configuring a WebGPU device.
type WGPUDeviceOption func(*wgpuDeviceImpl)

// WithFallbackAdapter forces the software fallback adapter.
//
// Returns:
//   - WGPUDeviceOption: option function to apply
func WithFallbackAdapter() WGPUDeviceOption {
	return func(d *wgpuDeviceImpl) {
		d.forceFallback = true
	}
}

// WithSurfaceSize sets the initial surface size in pixels.
//
// Parameters:
//   - width, height: surface dimensions
//
// Returns:
//   - WGPUDeviceOption: option function to apply
func WithSurfaceSize(width, height int) WGPUDeviceOption {
	return func(d *wgpuDeviceImpl) {
		d.width, d.height = width, height
	}
}

// WithVSync selects the FIFO present mode instead of the default immediate mode.
//
// Returns:
//   - WGPUDeviceOption: option function to apply
func WithVSync() WGPUDeviceOption {
	return func(d *wgpuDeviceImpl) {
		d.vsync = true
	}
}
