package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-gl/common"
	"github.com/Carmen-Shannon/oxy-gl/engine/gpu"
)

// Stats is one reporting window of frame and memory figures.
type Stats struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	SysMB       float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64

	// DrawCalls and Vertices are filled when a draw stats source is set.
	DrawCalls int
	Vertices  int
}

// Profiler tracks frame rate and memory statistics and reports them through the
// package logger at a fixed interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	draws          func() gpu.DrawStats
	last           Stats
	now            func() time.Time
}

// NewProfiler creates a Profiler reporting once per interval. Intervals of zero or less
// fall back to one second.
//
// Parameters:
//   - interval: time between reports
//
// Returns:
//   - *Profiler: the new profiler
func NewProfiler(interval time.Duration) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: interval,
		now:            time.Now,
	}
}

// SetDrawSource sets a function returning cumulative draw statistics, such as
// gpu.SoftwareDevice.Stats. Reports then include draw calls and vertices.
func (p *Profiler) SetDrawSource(source func() gpu.DrawStats) {
	p.draws = source
}

// SetInterval changes the time between reports. Intervals of zero or less are ignored.
func (p *Profiler) SetInterval(interval time.Duration) {
	if interval > 0 {
		p.updateInterval = interval
	}
}

// Last returns the most recent report.
func (p *Profiler) Last() Stats {
	return p.last
}

// Tick should be called once per frame. When the interval has elapsed it gathers
// statistics and logs them at Info level.
//
// Returns:
//   - bool: true if stats were reported this tick
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	s := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
	}

	// PauseNs is a ring of the last 256 pauses.
	if s.GCCount > 0 {
		s.LastPauseUs = p.memStats.PauseNs[(s.GCCount-1)%256] / 1000
		start := p.lastGCCount
		if s.GCCount-start > 256 {
			start = s.GCCount - 256
		}
		for i := start; i < s.GCCount; i++ {
			s.MaxPauseUs = max(s.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}
	if p.draws != nil {
		d := p.draws()
		s.DrawCalls, s.Vertices = d.DrawCalls, d.Vertices
	}

	common.Logger().Info("profiler",
		slog.Float64("fps", s.FPS),
		slog.Float64("heapMB", s.HeapMB),
		slog.Float64("allocRateMB", s.AllocRateMB),
		slog.Any("gc", s.GCCount),
		slog.Uint64("lastPauseUs", s.LastPauseUs),
		slog.Uint64("maxPauseUs", s.MaxPauseUs),
		slog.Float64("sysMB", s.SysMB),
		slog.Int("drawCalls", s.DrawCalls),
		slog.Int("vertices", s.Vertices),
	)

	p.last = s
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
