package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-gl/engine/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, BackendGL, c.Backend)
	assert.Equal(t, 1280, c.Window.Width)
	assert.Equal(t, time.Second, c.Profiler.Interval.Duration())
	assert.Equal(t, 20000, c.Scene.Stars)
	require.NoError(t, c.Validate())

	mode, err := c.LayoutMode()
	require.NoError(t, err)
	assert.Equal(t, layout.ModeStd430, mode)
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
backend: software
layout: std140
window:
  title: stars
  vsync: true
profiler:
  enabled: true
  interval: 250ms
scene:
  stars: 10
  tick_rate: 30
`))
	require.NoError(t, err)

	assert.Equal(t, BackendSoftware, c.Backend)
	assert.Equal(t, "stars", c.Window.Title)
	assert.Equal(t, 720, c.Window.Height)
	assert.True(t, c.Window.VSync)
	assert.True(t, c.Profiler.Enabled)
	assert.Equal(t, 250*time.Millisecond, c.Profiler.Interval.Duration())
	assert.Equal(t, 10, c.Scene.Stars)
	assert.Equal(t, 64, c.Scene.Cubes)
	assert.Equal(t, 30.0, c.Scene.TickRate)

	mode, err := c.LayoutMode()
	require.NoError(t, err)
	assert.Equal(t, layout.ModeStd140, mode)
}

func TestParseKeepsExplicitZeroCounts(t *testing.T) {
	c, err := Parse([]byte(`
scene:
  stars: 0
  batches: 0
  seed: 0
`))
	require.NoError(t, err)

	assert.Zero(t, c.Scene.Stars)
	assert.Zero(t, c.Scene.Batches)
	assert.Zero(t, c.Scene.Seed)
	assert.Equal(t, 64, c.Scene.Cubes)
	assert.Equal(t, 60.0, c.Scene.TickRate)
}

func TestParseRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"backend":  "backend: vulkan",
		"layout":   "layout: packed",
		"unknown":  "colour: red",
		"duration": "profiler:\n  interval: soon",
		"negative": "scene:\n  stars: -1",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("backend: vulkan"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxyview.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: wgpu\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendWGPU, c.Backend)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseEmptyDocument(t *testing.T) {
	c, err := Parse([]byte("# nothing set\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}
