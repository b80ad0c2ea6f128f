package engine

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-gl/engine/config"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderable"
	"github.com/Carmen-Shannon/oxy-gl/engine/renderlist"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct{ t time.Time }

func (c *manualClock) now() time.Time { return c.t }

func (c *manualClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(t *testing.T, options ...EngineBuilderOption) (*engine, gpu.SoftwareDevice, *manualClock) {
	t.Helper()
	dev := gpu.NewSoftwareDevice()
	e, ok := NewEngine(dev, options...).(*engine)
	require.True(t, ok)
	clock := &manualClock{t: time.Unix(1000, 0)}
	e.now = clock.now
	e.sleep = func(time.Duration) {}
	return e, dev, clock
}

func TestRunFramesRecordsFrames(t *testing.T) {
	e, dev, _ := newTestEngine(t)
	mesh := renderable.NewPoints(dev, "stars", []mgl32.Vec3{{0, 0, 0}, {1, 1, 1}})
	e.RenderList().Add(renderlist.Program{ID: 4, Name: "points"}, "stars", mesh)
	dev.ResetTrace()

	require.NoError(t, e.RunFrames(2))

	assert.Equal(t, uint64(2), e.Frame())
	assert.Equal(t, []string{
		gpu.OpBeginFrame, gpu.OpUseProgram, gpu.OpDrawArrays, gpu.OpUseProgram, gpu.OpEndFrame,
		gpu.OpBeginFrame, gpu.OpUseProgram, gpu.OpDrawArrays, gpu.OpUseProgram, gpu.OpEndFrame,
	}, dev.Ops(gpu.OpBeginFrame, gpu.OpUseProgram, gpu.OpDrawArrays, gpu.OpEndFrame))
	assert.Equal(t, 4, dev.Stats().Vertices)
}

func TestRunFramesZeroDoesNothing(t *testing.T) {
	e, dev, _ := newTestEngine(t)
	require.NoError(t, e.RunFrames(0))
	assert.Empty(t, dev.Ops(gpu.OpBeginFrame))
}

func TestFrameCarriesIndexAndMatrices(t *testing.T) {
	e, _, clock := newTestEngine(t)
	view := mgl32.Ident4()
	e.SetMatrices(&view)

	var seen []renderable.Frame
	e.SetRenderCallback(func(frame renderable.Frame) {
		clock.advance(10 * time.Millisecond)
	})
	e.RenderList().Add(renderlist.Program{
		ID:      1,
		OnStart: func(frame renderable.Frame) { seen = append(seen, frame) },
	}, "", renderable.New(e.Device(), nil, gpu.Triangles, renderable.WithCount(3)))

	require.NoError(t, e.RunFrames(2))
	require.Len(t, seen, 2)
	assert.Equal(t, uint64(0), seen[0].Index)
	assert.Equal(t, uint64(1), seen[1].Index)
	assert.Same(t, &view, seen[1].Matrices)
	assert.InDelta(t, 0.01, seen[1].Delta, 1e-6)
}

func TestTicksFollowElapsedTime(t *testing.T) {
	e, _, clock := newTestEngine(t, WithTickRate(50))
	var deltas []float32
	e.SetTickCallback(func(dt float32) { deltas = append(deltas, dt) })
	e.SetRenderCallback(func(renderable.Frame) { clock.advance(40 * time.Millisecond) })

	require.NoError(t, e.RunFrames(3))

	require.Len(t, deltas, 4)
	for _, dt := range deltas {
		assert.InDelta(t, 0.02, dt, 1e-6)
	}
}

func TestTicksCatchUpIsBounded(t *testing.T) {
	e, _, clock := newTestEngine(t, WithTickRate(50))
	ticks := 0
	e.SetTickCallback(func(float32) { ticks++ })
	e.SetRenderCallback(func(renderable.Frame) { clock.advance(time.Second) })

	require.NoError(t, e.RunFrames(2))
	assert.Equal(t, maxTicksPerFrame, ticks)
	assert.Zero(t, e.accum)
}

func TestQuitStopsAfterCurrentFrame(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetRenderCallback(func(frame renderable.Frame) {
		if frame.Index == 1 {
			e.Quit()
		}
	})

	require.NoError(t, e.RunFrames(10))
	assert.Equal(t, uint64(2), e.Frame())
	assert.NotPanics(t, e.Quit)
}

func TestPanicInFrameIsReturned(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.SetRenderCallback(func(renderable.Frame) { panic("boom") })

	err := e.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.True(t, e.quitting())
}

func TestRepeatedFrameFailuresStopTheLoop(t *testing.T) {
	e, dev, _ := newTestEngine(t)
	// An open frame makes every BeginFrame issued by the loop fail.
	require.NoError(t, dev.BeginFrame())

	err := e.RunFrames(10)
	require.Error(t, err)
	assert.ErrorIs(t, err, gpu.ErrInvalidOperation)
	assert.Zero(t, e.Frame())
	assert.Len(t, dev.Ops(gpu.OpBeginFrame), 1+maxFrameFailures)
}

func TestFrameLimitSleepsRemainder(t *testing.T) {
	e, _, _ := newTestEngine(t, WithRenderFrameLimit(100))
	var slept []time.Duration
	e.sleep = func(d time.Duration) { slept = append(slept, d) }

	require.NoError(t, e.RunFrames(2))
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond}, slept)

	e.SetRenderFrameLimit(0)
	slept = nil
	require.NoError(t, e.RunFrames(1))
	assert.Empty(t, slept)
}

func TestProfilerToggle(t *testing.T) {
	e, _, _ := newTestEngine(t, WithProfiling(true, 5*time.Second))
	assert.False(t, e.ToggleProfiler())
	assert.True(t, e.ToggleProfiler())
	e.DisableProfiler()
	assert.False(t, e.profilingEnabled)
	e.EnableProfiler()
	assert.True(t, e.profilingEnabled)
}

func TestCloseDisposesListOnce(t *testing.T) {
	e, dev, _ := newTestEngine(t)
	mesh := renderable.NewPoints(dev, "stars", []mgl32.Vec3{{0, 0, 0}})
	e.RenderList().Add(renderlist.Program{ID: 1}, "stars", mesh)

	e.Close()
	assert.Zero(t, e.RenderList().Len())
	assert.True(t, e.quitting())
	assert.NotPanics(t, e.Close)
}

func TestNewDeviceSelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendSoftware
	dev, err := NewDevice(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "software", dev.Name())

	win, err := NewWindow(cfg)
	require.NoError(t, err)
	assert.Nil(t, win)

	cfg.Backend = config.BackendGL
	_, err = NewDevice(cfg, nil)
	assert.ErrorIs(t, err, gpu.ErrUnsupported)

	cfg.Backend = "vulkan"
	_, err = NewDevice(cfg, nil)
	assert.ErrorIs(t, err, config.ErrInvalid)
}
