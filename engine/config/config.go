package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/layout"
	"gopkg.in/yaml.v3"
)

// Backend names accepted in Config.Backend.
const (
	BackendGL       = "gl"
	BackendWGPU     = "wgpu"
	BackendSoftware = "software"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the viewer configuration file.
type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Backend  string         `yaml:"backend"`
	Layout   string         `yaml:"layout"`
	Profiler ProfilerConfig `yaml:"profiler"`
	Scene    SceneConfig    `yaml:"scene"`
}

// WindowConfig sizes and names the window.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	VSync  bool   `yaml:"vsync"`
}

// ProfilerConfig controls the frame profiler.
type ProfilerConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Interval Duration `yaml:"interval"`
}

// SceneConfig sizes the demo scene.
type SceneConfig struct {
	Stars      int     `yaml:"stars"`
	Cubes      int     `yaml:"cubes"`
	Batches    int     `yaml:"batches"`
	Seed       int64   `yaml:"seed"`
	TickRate   float64 `yaml:"tick_rate"`
	FrameLimit float64 `yaml:"frame_limit"`
}

// Duration wraps time.Duration for YAML unmarshaling.
type Duration time.Duration

// UnmarshalYAML parses strings such as "500ms" or "2s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default returns the configuration used when no file is given.
func Default() Config {
	c := Config{
		Scene: SceneConfig{
			Stars:   20000,
			Cubes:   64,
			Batches: 4,
			Seed:    1,
		},
	}
	c.applyDefaults()
	return c
}

// Load reads and parses a YAML configuration file.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the parsed configuration with defaults applied
//   - error: error if the file cannot be read, parsed or validated
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes YAML configuration over Default and validates the result. Keys absent from
// the document keep their defaults, so an explicit zero scene count disables that part.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	c := Default()
	if len(data) > 0 {
		if err := decodeStrict(data, &c); err != nil {
			return Config{}, fmt.Errorf("parsing config: %w", err)
		}
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// applyDefaults fills fields whose zero value is never usable.
func (c *Config) applyDefaults() {
	c.Window.Title = common.Coalesce(c.Window.Title, "oxyview")
	c.Window.Width = common.Coalesce(c.Window.Width, 1280)
	c.Window.Height = common.Coalesce(c.Window.Height, 720)
	c.Backend = common.Coalesce(c.Backend, BackendGL)
	c.Layout = common.Coalesce(c.Layout, layout.ModeStd430.String())
	c.Profiler.Interval = common.Coalesce(c.Profiler.Interval, Duration(time.Second))
	c.Scene.TickRate = common.Coalesce(c.Scene.TickRate, 60)
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendGL, BackendWGPU, BackendSoftware:
	default:
		return fmt.Errorf("%w: backend %q, want %s, %s or %s", ErrInvalid, c.Backend, BackendGL, BackendWGPU, BackendSoftware)
	}
	if _, err := c.LayoutMode(); err != nil {
		return err
	}
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Scene.Stars < 0 || c.Scene.Cubes < 0 || c.Scene.Batches < 0 {
		return fmt.Errorf("%w: negative scene counts", ErrInvalid)
	}
	if c.Scene.TickRate < 0 || c.Scene.FrameLimit < 0 {
		return fmt.Errorf("%w: negative rates", ErrInvalid)
	}
	return nil
}

// LayoutMode converts the Layout field.
func (c Config) LayoutMode() (layout.Mode, error) {
	switch c.Layout {
	case layout.ModeStd430.String():
		return layout.ModeStd430, nil
	case layout.ModeStd140.String():
		return layout.ModeStd140, nil
	}
	return 0, fmt.Errorf("%w: layout %q, want std430 or std140", ErrInvalid, c.Layout)
}
