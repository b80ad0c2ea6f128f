package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/profiler"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderable"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderlist"
	"github.com/Carmen-Shannon/oxy-gl/engine/window"
)

// maxTicksPerFrame bounds the catch-up ticks run after a long stall.
const maxTicksPerFrame = 5

// maxFrameFailures is the number of consecutive BeginFrame failures Run tolerates.
const maxFrameFailures = 3

// engine implements the Engine interface.
// All work runs on the goroutine that calls Run or RunFrames, which must be the one that
// created the device.
type engine struct {
	quitChannel chan struct{}
	quitOnce    sync.Once
	closeOnce   sync.Once

	window     window.Window
	device     gpu.Device
	renderList renderlist.RenderList

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(frame renderable.Frame)
	resizeCallback func(width, height int)
	matrices       any

	renderFrameLimit time.Duration

	frame      uint64
	lastRender time.Time
	lastTick   time.Time
	accum      time.Duration
	failures   int
	now        func() time.Time
	sleep      func(time.Duration)
}

// Engine drives the frame loop: it polls the window, runs fixed-rate ticks, renders the
// render list between BeginFrame and EndFrame and presents the result.
type Engine interface {
	// Window returns the window, or nil for a headless engine.
	Window() window.Window

	// Device returns the device frames are recorded on.
	Device() gpu.Device

	// RenderList returns the list drawn every frame.
	RenderList() renderlist.RenderList

	// Profiler returns the frame profiler.
	Profiler() *profiler.Profiler

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// ToggleProfiler flips profiling output and reports the new state.
	ToggleProfiler() bool

	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	// Use this for simulation, input processing and animation updates.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the tick length in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called once per frame before recording starts.
	// Use this for per-frame buffer updates.
	//
	// Parameters:
	//   - callback: function receiving the frame about to be drawn
	SetRenderCallback(callback func(frame renderable.Frame))

	// SetResizeCallback registers a function called after the device has been resized.
	SetResizeCallback(callback func(width, height int))

	// SetMatrices sets the value passed as Frame.Matrices to bind callbacks and program hooks.
	SetMatrices(matrices any)

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Frame returns the number of frames rendered so far.
	Frame() uint64

	// Run renders frames until the window closes or Quit is called. A panic inside a frame
	// is recovered and returned as an error.
	//
	// Returns:
	//   - error: the failure that stopped the loop, or nil on a clean exit
	Run() error

	// RunFrames renders at most n frames, stopping early on Quit or window close.
	//
	// Parameters:
	//   - n: the number of frames to render
	//
	// Returns:
	//   - error: the failure that stopped the loop, or nil
	RunFrames(n int) error

	// Quit stops the loop after the current frame. Safe to call multiple times.
	Quit()

	// Close disposes the render list, releases the device and closes the window.
	// Safe to call multiple times.
	Close()
}

// NewEngine creates an Engine drawing on the given device.
//
// Parameters:
//   - device: the device frames are recorded on
//   - options: functional options for engine configuration (window, profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(device gpu.Device, options ...EngineBuilderOption) Engine {
	e := &engine{
		quitChannel:    make(chan struct{}),
		device:         device,
		profiler:       profiler.NewProfiler(time.Second),
		engineTickRate: time.Second / 60,
		now:            time.Now,
		sleep:          time.Sleep,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.renderList == nil {
		e.renderList = renderlist.New(device)
	}
	if sd, ok := device.(gpu.SoftwareDevice); ok {
		e.profiler.SetDrawSource(sd.Stats)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			e.device.Resize(width, height)
			if e.resizeCallback != nil {
				e.resizeCallback(width, height)
			}
		})
		e.device.Resize(e.window.Width(), e.window.Height())
	}

	return e
}

func (e *engine) Window() window.Window { return e.window }

func (e *engine) Device() gpu.Device { return e.device }

func (e *engine) RenderList() renderlist.RenderList { return e.renderList }

func (e *engine) Profiler() *profiler.Profiler { return e.profiler }

func (e *engine) Frame() uint64 { return e.frame }

func (e *engine) Run() error {
	return e.loop(-1)
}

func (e *engine) RunFrames(n int) error {
	if n <= 0 {
		return nil
	}
	return e.loop(n)
}

// loop renders frames until limit is reached (negative means no limit), the window
// closes or Quit is called.
func (e *engine) loop(limit int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine: frame %d panicked: %v", e.frame, r)
			common.Logger().Error("render loop recovered from panic", "frame", e.frame, "panic", r)
			e.signalQuit()
		}
	}()

	e.lastRender = e.now()
	if e.lastTick.IsZero() {
		e.lastTick = e.lastRender
	}

	for n := 0; limit < 0 || n < limit; n++ {
		if e.quitting() {
			return nil
		}
		if e.window != nil && !e.window.PollEvents() {
			return nil
		}
		if err := e.renderFrame(); err != nil {
			return err
		}
	}
	return nil
}

// renderFrame runs due ticks, records one frame and waits out the frame limit.
func (e *engine) renderFrame() error {
	start := e.now()
	dt := float32(start.Sub(e.lastRender).Seconds())
	e.lastRender = start

	e.runTicks(start)

	frame := renderable.Frame{Index: e.frame, Delta: dt, Matrices: e.matrices}
	if e.renderCallback != nil {
		e.renderCallback(frame)
	}

	if err := e.device.BeginFrame(); err != nil {
		e.failures++
		common.Logger().Warn("frame skipped", "frame", e.frame, "error", err)
		if e.failures >= maxFrameFailures {
			return fmt.Errorf("engine: %d consecutive frames failed: %w", e.failures, err)
		}
		return nil
	}
	e.failures = 0
	e.renderList.Render(frame)
	e.device.EndFrame()
	if e.window != nil {
		e.window.Present()
	}
	e.frame++

	if e.profilingEnabled {
		e.profiler.Tick()
	}

	if e.renderFrameLimit > 0 {
		if remaining := e.renderFrameLimit - e.now().Sub(start); remaining > 0 {
			e.sleep(remaining)
		}
	}
	return nil
}

// runTicks fires the tick callback once per elapsed tick period, capped at maxTicksPerFrame.
func (e *engine) runTicks(now time.Time) {
	e.accum += now.Sub(e.lastTick)
	e.lastTick = now
	if e.tickCallback == nil {
		e.accum %= e.engineTickRate
		return
	}

	step := float32(e.engineTickRate.Seconds())
	for ticks := 0; e.accum >= e.engineTickRate; ticks++ {
		if ticks == maxTicksPerFrame {
			e.accum %= e.engineTickRate
			break
		}
		e.tickCallback(step)
		e.accum -= e.engineTickRate
	}
}

func (e *engine) quitting() bool {
	select {
	case <-e.quitChannel:
		return true
	default:
		return false
	}
}

// Quit signals the loop to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Close() {
	e.closeOnce.Do(func() {
		e.signalQuit()
		e.renderList.Dispose()
		e.device.Release()
		if e.window != nil {
			e.window.Close()
		}
	})
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) ToggleProfiler() bool {
	e.profilingEnabled = !e.profilingEnabled
	return e.profilingEnabled
}

// SetTickRate sets the engine tick rate in ticks per second.
func (e *engine) SetTickRate(fps float64) {
	e.engineTickRate = tickPeriod(fps)
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(frame renderable.Frame)) {
	e.renderCallback = callback
}

func (e *engine) SetResizeCallback(callback func(width, height int)) {
	e.resizeCallback = callback
}

func (e *engine) SetMatrices(matrices any) {
	e.matrices = matrices
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = framePeriod(fps)
}

func tickPeriod(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}

func framePeriod(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
