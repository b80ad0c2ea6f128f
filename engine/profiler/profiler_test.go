package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickReportsAfterInterval(t *testing.T) {
	var out bytes.Buffer
	common.SetLogger(slog.New(slog.NewTextHandler(&out, nil)))
	defer common.SetLogger(nil)

	clock := time.Unix(100, 0)
	p := NewProfiler(time.Second)
	p.lastTime = clock
	p.now = func() time.Time { return clock }
	p.SetDrawSource(func() gpu.DrawStats { return gpu.DrawStats{DrawCalls: 3, Vertices: 90} })

	for i := 0; i < 29; i++ {
		clock = clock.Add(30 * time.Millisecond)
		require.False(t, p.Tick())
	}
	clock = clock.Add(130 * time.Millisecond)
	require.True(t, p.Tick())

	assert.InDelta(t, 30.0, p.Last().FPS, 0.001)
	assert.Equal(t, 3, p.Last().DrawCalls)
	assert.Contains(t, out.String(), "drawCalls=3")
	assert.False(t, p.Tick())
}

func TestDefaultInterval(t *testing.T) {
	p := NewProfiler(0)
	assert.Equal(t, time.Second, p.updateInterval)
}
