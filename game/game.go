// Package game wires the fluid solver to its collaborators: pointer input,
// scripted emitters, the streaming hub, telemetry and the raylib view.
package game

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/stablefluids/config"
	"github.com/pthm-cable/stablefluids/fluid"
	"github.com/pthm-cable/stablefluids/input"
	"github.com/pthm-cable/stablefluids/palette"
	"github.com/pthm-cable/stablefluids/renderer"
	"github.com/pthm-cable/stablefluids/stream"
	"github.com/pthm-cable/stablefluids/systems"
	"github.com/pthm-cable/stablefluids/telemetry"
	"github.com/pthm-cable/stablefluids/ui"
)

// maxStepsPerUpdate bounds the steps-per-update keyboard control.
const maxStepsPerUpdate = 10

// Options configures a Game.
type Options struct {
	Seed           int64 // Noise seed override (0 = config)
	LogStats       bool
	StatsWindowSec float64
	OutputDir      string
	Headless       bool
	StepsPerUpdate int

	// Config overrides config.Cfg() when set.
	Config *config.Config

	// StatsCallback receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)

	// Hub, when set, receives density frames and supplies remote splats.
	Hub *stream.Hub
}

// Game holds the complete application state.
type Game struct {
	cfg      *config.Config
	sim      *fluid.Simulation
	emitters *systems.EmitterSystem
	noise    config.NoiseConfig
	drag     input.Drag
	hub      *stream.Hub

	// Pointer sampled by Update, consumed by the next step
	pointer    input.Pointer
	hasPointer bool

	viscosity float32
	diffusion float32

	// Rendering (nil when headless)
	palette  *palette.Palette
	density  *renderer.DensityTexture
	hud      *ui.HUD
	controls *ui.ControlsPanel
	perf     *ui.PerfPanel
	showPerf bool

	// Telemetry
	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool
	broadcastBuf  []float32

	tick           int32
	paused         bool
	headless       bool
	stepsPerUpdate int
}

// NewGameWithOptions creates a game. In graphical mode the raylib window
// must already be open.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	pal, err := palette.New(cfg.Display)
	if err != nil {
		return nil, fmt.Errorf("creating palette: %w", err)
	}

	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	noise := cfg.Noise
	if opts.Seed != 0 {
		noise.Seed = opts.Seed
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	sim := fluid.New(cfg.Solver.N)
	sim.Solver = fluid.NewSolver(cfg.Solver.Iterations)

	g := &Game{
		cfg:      cfg,
		sim:      sim,
		emitters: systems.NewEmitterSystem(cfg.Emitters),
		noise:    noise,
		hub:      opts.Hub,
		drag: input.Drag{
			Mapper: input.Mapper{
				N:      cfg.Solver.N,
				Width:  cfg.Derived.ScreenW32,
				Height: cfg.Derived.ScreenH32,
			},
			DensityAmount: float32(cfg.Input.DensityAmount),
			VelocityScale: float32(cfg.Input.VelocityScale),
		},
		viscosity:      cfg.Derived.Viscosity32,
		diffusion:      cfg.Derived.Diffusion32,
		palette:        pal,
		collector:      telemetry.NewCollector(statsWindow, nominalDT(cfg, opts.Headless)),
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		statsCallback:  opts.StatsCallback,
		logStats:       opts.LogStats,
		broadcastBuf:   make([]float32, cfg.Solver.N*cfg.Solver.N),
		headless:       opts.Headless,
		stepsPerUpdate: steps,
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	if !opts.Headless {
		g.density = renderer.NewDensityTexture(cfg.Solver.N, pal)
		g.density.Init()
		g.hud = ui.NewHUD()
		g.perf = ui.NewPerfPanel(10, 130)
		g.controls = ui.NewControlsPanel(0, 10, cfg.Controls)
		g.controls.SetPosition(int32(cfg.Screen.Width)-g.controls.Width()-10, 10)
	}

	g.emitters.Spawn()
	systems.SeedNoise(g.sim, g.noise)

	return g, nil
}

// nominalDT is the per-tick dt used to size telemetry windows.
func nominalDT(cfg *config.Config, headless bool) float32 {
	switch {
	case headless:
		return cfg.Derived.HeadlessDT32
	case cfg.Derived.FixedDT32 > 0:
		return cfg.Derived.FixedDT32
	case cfg.Screen.TargetFPS > 0:
		return 1 / float32(cfg.Screen.TargetFPS)
	default:
		return cfg.Derived.HeadlessDT32
	}
}

// UpdateHeadless runs StepsPerUpdate ticks at the headless dt without
// touching raylib.
func (g *Game) UpdateHeadless() {
	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step(g.cfg.Derived.HeadlessDT32)
	}
}

// step advances one tick. Sources are applied first, then the solver runs,
// then frames and telemetry go out.
func (g *Game) step(dt float32) {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseInput)
	if g.hasPointer {
		g.collector.RecordInjection(g.drag.Apply(g.sim, g.pointer))
		g.hasPointer = false
	}
	if g.hub != nil {
		applied, injected := g.hub.Drain(g.sim)
		for i := 0; i < applied; i++ {
			g.collector.RecordSplat()
		}
		g.collector.RecordInjection(injected)
	}

	g.perfCollector.StartPhase(telemetry.PhaseEmitters)
	g.collector.RecordInjection(g.emitters.Update(g.sim, dt))

	g.sim.Phases = g.perfCollector
	g.sim.Step(dt, g.viscosity, g.diffusion)
	g.sim.Phases = nil

	g.tick++
	g.collector.AdvanceTime(dt)

	g.perfCollector.StartPhase(telemetry.PhaseStream)
	if g.hub != nil {
		g.hub.MaybeBroadcast(time.Now(), g.tick, g.sim, g.broadcastBuf)
	}

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	g.perfCollector.EndTick()
}

// Reset clears the field, respawns the configured emitters and reseeds the
// initial perturbation.
func (g *Game) Reset() {
	g.sim.Reset()
	g.emitters.Reset()
	systems.SeedNoise(g.sim, g.noise)
	g.collector.Reset(g.tick)
	slog.Info("field cleared", "tick", g.tick)
}

// SetParameters sets the viscosity and diffusivity used by later steps.
func (g *Game) SetParameters(viscosity, diffusion float32) {
	g.viscosity = viscosity
	g.diffusion = diffusion
}

// Parameters returns the current viscosity and diffusivity.
func (g *Game) Parameters() (viscosity, diffusion float32) {
	return g.viscosity, g.diffusion
}

// SetPaused pauses or resumes stepping.
func (g *Game) SetPaused(paused bool) {
	g.paused = paused
}

// Paused reports whether stepping is paused.
func (g *Game) Paused() bool {
	return g.paused
}

// Tick returns the number of steps taken.
func (g *Game) Tick() int32 {
	return g.tick
}

// Sim returns the simulation.
func (g *Game) Sim() *fluid.Simulation {
	return g.sim
}

// Emitters returns the number of live scripted emitters.
func (g *Game) Emitters() int {
	return g.emitters.Count()
}

// Unload releases GPU resources and closes output files.
func (g *Game) Unload() {
	if g.density != nil {
		g.density.Unload()
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output files", "error", err)
	}
}
