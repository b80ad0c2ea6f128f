package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/config"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/window"
)

// NewWindow opens a window suited to the configured backend. The software backend needs
// no window and gets nil.
//
// Parameters:
//   - cfg: the validated configuration
//
// Returns:
//   - window.Window: the new window, or nil for the software backend
//   - error: error if the window cannot be created
func NewWindow(cfg config.Config) (window.Window, error) {
	api := window.APIOpenGL
	switch cfg.Backend {
	case config.BackendSoftware:
		return nil, nil
	case config.BackendWGPU:
		api = window.APINone
	}
	return window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithClientAPI(api),
		window.WithVSync(cfg.Window.VSync),
	)
}

// NewDevice creates the device selected by cfg.Backend.
//
// The GL backend requires a window created with window.APIOpenGL whose context is current.
// The wgpu backend renders to the window surface, or runs headless when win is nil.
//
// Parameters:
//   - cfg: the validated configuration
//   - win: the window to render to, or nil
//
// Returns:
//   - gpu.Device: the new device
//   - error: error if the backend is unknown or fails to initialize
func NewDevice(cfg config.Config, win window.Window) (gpu.Device, error) {
	var (
		device gpu.Device
		err    error
	)
	switch cfg.Backend {
	case config.BackendSoftware:
		device = gpu.NewSoftwareDevice()
	case config.BackendGL:
		if win == nil || win.API() != window.APIOpenGL {
			return nil, fmt.Errorf("engine: the %s backend needs an OpenGL window: %w", cfg.Backend, gpu.ErrUnsupported)
		}
		device, err = gpu.NewGLDevice()
	case config.BackendWGPU:
		opts := []gpu.WGPUDeviceOption{}
		if cfg.Window.VSync {
			opts = append(opts, gpu.WithVSync())
		}
		if win == nil {
			device, err = gpu.NewWGPUDevice(nil, opts...)
			break
		}
		opts = append(opts, gpu.WithSurfaceSize(win.Width(), win.Height()))
		device, err = gpu.NewWGPUDevice(win.SurfaceDescriptor(), opts...)
	default:
		return nil, fmt.Errorf("engine: unknown backend %q: %w", cfg.Backend, config.ErrInvalid)
	}
	if err != nil {
		return nil, fmt.Errorf("engine: create %s device: %w", cfg.Backend, err)
	}

	common.Logger().Info("device ready", "backend", device.Name(), "capabilities", fmt.Sprintf("%+v", device.Capabilities()))
	return device, nil
}
