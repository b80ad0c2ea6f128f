package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, args ...string) error {
	t.Helper()
	t.Cleanup(func() { common.SetLogger(nil) })
	return newApp().Run(append([]string{"oxyview"}, args...))
}

func TestHeadlessRun(t *testing.T) {
	require.NoError(t, runApp(t, "--backend", "software", "--frames", "3", "--stars", "64"))
}

func TestHeadlessRunFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxyview.yaml")
	data := "backend: software\nlayout: std140\nscene:\n  stars: 32\n  cubes: 2\n  batches: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	require.NoError(t, runApp(t, "--config", path, "--frames", "2", "--verbose"))
}

func TestInvalidBackendIsRejected(t *testing.T) {
	err := runApp(t, "--backend", "vulkan", "--frames", "1")
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestMissingConfigFile(t *testing.T) {
	err := runApp(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
