// Command oxyview renders a quantized star field, an instanced cube field and an
// indirect triangle batch through one render list.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine"
	"github.com/Carmen-Shannon/oxy-gl/engine/config"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
	"github.com/Carmen-Shannon/oxy-gl/engine/window"
	"github.com/urfave/cli/v2"
)

// headlessFrames is the frame count used by the software backend when --frames is unset.
const headlessFrames = 120

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "YAML configuration file",
	}
	backendFlag = &cli.StringFlag{
		Name:  "backend",
		Usage: "rendering backend: gl, wgpu or software",
	}
	starsFlag = &cli.IntFlag{
		Name:  "stars",
		Usage: "number of stars in the star field",
	}
	framesFlag = &cli.IntFlag{
		Name:  "frames",
		Usage: "stop after this many frames (0 runs until the window closes)",
	}
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "log debug records",
	}
)

func init() {
	// GLFW and GL contexts must stay on the main thread.
	runtime.LockOSThread()
}

func newApp() *cli.App {
	return &cli.App{
		Name:   "oxyview",
		Usage:  "render a star field, instanced cubes and an indirect batch",
		Flags:  []cli.Flag{configFlag, backendFlag, starsFlag, framesFlag, verboseFlag},
		Action: oxyview,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := ctx.String(configFlag.Name); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	if ctx.IsSet(backendFlag.Name) {
		cfg.Backend = ctx.String(backendFlag.Name)
	}
	if ctx.IsSet(starsFlag.Name) {
		cfg.Scene.Stars = ctx.Int(starsFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func oxyview(ctx *cli.Context) error {
	level := slog.LevelInfo
	if ctx.Bool(verboseFlag.Name) {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	mode, err := cfg.LayoutMode()
	if err != nil {
		return err
	}

	// ── Window + Device ────────────────────────────────────────────
	win, err := engine.NewWindow(cfg)
	if err != nil {
		return err
	}
	device, err := engine.NewDevice(cfg, win)
	if err != nil {
		if win != nil {
			win.Close()
		}
		return err
	}

	// ── Engine ─────────────────────────────────────────────────────
	options := []engine.EngineBuilderOption{
		engine.WithProfiling(cfg.Profiler.Enabled, cfg.Profiler.Interval.Duration()),
		engine.WithTickRate(cfg.Scene.TickRate),
		engine.WithRenderFrameLimit(cfg.Scene.FrameLimit),
	}
	aspect := float32(cfg.Window.Width) / float32(cfg.Window.Height)
	if win != nil {
		options = append(options, engine.WithWindow(win))
		if win.Height() > 0 {
			aspect = float32(win.Width()) / float32(win.Height())
		}
	}
	eng := engine.NewEngine(device, options...)

	// ── Scene ──────────────────────────────────────────────────────
	s, err := newScene(device, eng.RenderList(), cfg.Scene, mode, aspect)
	if err != nil {
		eng.Close()
		return err
	}
	defer func() {
		s.dispose()
		eng.Close()
	}()

	eng.SetMatrices(s.camera.Matrices())
	eng.SetTickCallback(s.tick)
	eng.SetRenderCallback(s.update)
	eng.SetResizeCallback(s.resize)
	if win != nil {
		bindKeys(win, eng, s)
	}

	frames := ctx.Int(framesFlag.Name)
	if frames == 0 && win == nil {
		frames = headlessFrames
	}
	if frames > 0 {
		err = eng.RunFrames(frames)
	} else {
		err = eng.Run()
	}
	if err != nil {
		return err
	}

	if sd, ok := device.(gpu.SoftwareDevice); ok {
		stats := sd.Stats()
		common.Logger().Info("headless run finished",
			"frames", eng.Frame(), "drawCalls", stats.DrawCalls, "vertices", stats.Vertices, "instances", stats.Instances)
	}
	return nil
}

// bindKeys routes input to the scene controls. P toggles the profiler and the scroll
// wheel zooms the camera.
func bindKeys(win window.Window, eng engine.Engine, s *scene) {
	win.SetScrollCallback(s.camera.Zoom)
	win.SetKeyDownCallback(func(keyCode uint32) {
		if keyCode == common.KeyP {
			common.Logger().Info("profiler toggled", "enabled", eng.ToggleProfiler())
			return
		}
		s.handleKey(keyCode)
	})
}
