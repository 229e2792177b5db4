package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/stablefluids/fluid"
)

// Phase names for work around the solver step. Solver phases come from
// fluid.StepPhases.
const (
	PhaseInput     = "input"
	PhaseEmitters  = "emitters"
	PhaseStream    = "stream"
	PhaseTelemetry = "telemetry"
)

// Phases lists every phase in tick order.
var Phases = append(append([]string{PhaseInput, PhaseEmitters}, fluid.StepPhases...), PhaseStream, PhaseTelemetry)

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks tick and phase timing over a rolling window.
// It satisfies fluid.PhaseTimer.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	tickStart     time.Time
	phaseStart    time.Time
	lastPhase     string

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.currentPhases = make(map[string]time.Duration, len(Phases))
	p.lastPhase = ""
}

// StartPhase closes the running phase, if any, and starts the named one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndTick closes the running phase and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.lastPhase = ""
}

// RecordFrame records frame timing for graphics mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// LastTick returns the duration of the most recent tick.
func (p *PerfCollector) LastTick() time.Duration {
	if p.sampleCount == 0 {
		return 0
	}
	return p.samples[(p.writeIndex+p.windowSize-1)%p.windowSize].TickDuration
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	// Average duration and share of tick time per phase
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	stats := PerfStats{
		PhaseAvg:      make(map[string]time.Duration),
		PhasePct:      make(map[string]float64),
		FrameDuration: p.frameDuration,
		FPS:           fps,
	}
	if p.sampleCount == 0 {
		return stats
	}

	var total time.Duration
	ticks := make([]float64, p.sampleCount)
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.TickDuration
		ticks[i] = float64(s.TickDuration)
		if i == 0 || s.TickDuration < stats.MinTickDuration {
			stats.MinTickDuration = s.TickDuration
		}
		if s.TickDuration > stats.MaxTickDuration {
			stats.MaxTickDuration = s.TickDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	stats.AvgTickDuration = total / time.Duration(p.sampleCount)
	stats.P95TickDuration = time.Duration(Percentile(sortedCopy(ticks), 0.95))
	for phase, sum := range phaseSum {
		avg := sum / time.Duration(p.sampleCount)
		stats.PhaseAvg[phase] = avg
		if stats.AvgTickDuration > 0 {
			stats.PhasePct[phase] = float64(avg) / float64(stats.AvgTickDuration) * 100
		}
	}
	if stats.AvgTickDuration > 0 {
		stats.TicksPerSecond = float64(time.Second) / float64(stats.AvgTickDuration)
	}
	return stats
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"p95_tick_us", s.P95TickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd         int32   `csv:"window_end"`
	AvgTickUS         int64   `csv:"avg_tick_us"`
	MinTickUS         int64   `csv:"min_tick_us"`
	MaxTickUS         int64   `csv:"max_tick_us"`
	P95TickUS         int64   `csv:"p95_tick_us"`
	TicksPerSec       float64 `csv:"ticks_per_sec"`
	FPS               float64 `csv:"fps"`
	InputPct          float64 `csv:"input_pct"`
	EmittersPct       float64 `csv:"emitters_pct"`
	VelDiffusePct     float64 `csv:"velocity_diffuse_pct"`
	VelProjectPct     float64 `csv:"velocity_project_pct"`
	VelAdvectPct      float64 `csv:"velocity_advect_pct"`
	VelReprojectPct   float64 `csv:"velocity_reproject_pct"`
	DensityDiffusePct float64 `csv:"density_diffuse_pct"`
	DensityAdvectPct  float64 `csv:"density_advect_pct"`
	StreamPct         float64 `csv:"stream_pct"`
	TelemetryPct      float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:         windowEnd,
		AvgTickUS:         s.AvgTickDuration.Microseconds(),
		MinTickUS:         s.MinTickDuration.Microseconds(),
		MaxTickUS:         s.MaxTickDuration.Microseconds(),
		P95TickUS:         s.P95TickDuration.Microseconds(),
		TicksPerSec:       s.TicksPerSecond,
		FPS:               s.FPS,
		InputPct:          s.PhasePct[PhaseInput],
		EmittersPct:       s.PhasePct[PhaseEmitters],
		VelDiffusePct:     s.PhasePct[fluid.PhaseVelocityDiffuse],
		VelProjectPct:     s.PhasePct[fluid.PhaseVelocityProject],
		VelAdvectPct:      s.PhasePct[fluid.PhaseVelocityAdvect],
		VelReprojectPct:   s.PhasePct[fluid.PhaseVelocityReproject],
		DensityDiffusePct: s.PhasePct[fluid.PhaseDensityDiffuse],
		DensityAdvectPct:  s.PhasePct[fluid.PhaseDensityAdvect],
		StreamPct:         s.PhasePct[PhaseStream],
		TelemetryPct:      s.PhasePct[PhaseTelemetry],
	}
}
