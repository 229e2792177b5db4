// Package config provides configuration loading and access for the solver
// and its hosts.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Solver    SolverConfig    `yaml:"solver"`
	Controls  ControlsConfig  `yaml:"controls"`
	Input     InputConfig     `yaml:"input"`
	Display   DisplayConfig   `yaml:"display"`
	Noise     NoiseConfig     `yaml:"noise"`
	Emitters  []EmitterConfig `yaml:"emitters"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Server    ServerConfig    `yaml:"server"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// SolverConfig holds grid resolution and transport coefficients.
type SolverConfig struct {
	N          int     `yaml:"n"`           // Interior cells per side
	Iterations int     `yaml:"iterations"`  // Gauss-Seidel sweeps per solve
	Viscosity  float64 `yaml:"viscosity"`   // Initial velocity diffusion rate
	Diffusion  float64 `yaml:"diffusion"`   // Initial density diffusion rate
	FixedDT    float64 `yaml:"fixed_dt"`    // 0 = use frame time
	MaxDT      float64 `yaml:"max_dt"`      // Upper clamp on frame-time dt
	HeadlessDT float64 `yaml:"headless_dt"` // Step size without a window
}

// ControlsConfig holds slider ranges for the control panel.
type ControlsConfig struct {
	ViscosityMin float64 `yaml:"viscosity_min"`
	ViscosityMax float64 `yaml:"viscosity_max"`
	DiffusionMin float64 `yaml:"diffusion_min"`
	DiffusionMax float64 `yaml:"diffusion_max"`
	PanelWidth   int     `yaml:"panel_width"`
}

// InputConfig holds pointer injection parameters.
type InputConfig struct {
	DensityAmount float64 `yaml:"density_amount"` // Density added per frame while dragging
	VelocityScale float64 `yaml:"velocity_scale"` // Pointer displacement multiplier
}

// DisplayConfig holds density colouring parameters.
type DisplayConfig struct {
	Tint        [3]float64 `yaml:"tint"`         // RGB multipliers in [0,1]
	Palette     string     `yaml:"palette"`      // "tint" or "hue"
	HueCycles   float64    `yaml:"hue_cycles"`   // Hue turns across the palette
	PaletteSize int        `yaml:"palette_size"` // Lookup table entries
}

// NoiseConfig holds the initial velocity perturbation.
type NoiseConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Seed      int64   `yaml:"seed"`
	Scale     float64 `yaml:"scale"`     // Noise frequency in grid cells
	Amplitude float64 `yaml:"amplitude"` // Peak velocity
}

// EmitterConfig defines a scripted density/velocity source.
type EmitterConfig struct {
	Name     string  `yaml:"name"`
	X        float64 `yaml:"x"`        // Position as fraction of the grid [0,1]
	Y        float64 `yaml:"y"`        // Position as fraction of the grid [0,1]
	Density  float64 `yaml:"density"`  // Density injected per tick
	VX       float64 `yaml:"vx"`       // Velocity injected per tick
	VY       float64 `yaml:"vy"`       // Velocity injected per tick
	Spin     float64 `yaml:"spin"`     // Jet rotation in radians per second
	Lifetime float64 `yaml:"lifetime"` // Seconds until removal (0 = forever)
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// ServerConfig holds the density streaming server parameters.
type ServerConfig struct {
	Addr             string  `yaml:"addr"`
	FrameIntervalMS  int     `yaml:"frame_interval_ms"`
	MaxPending       int     `yaml:"max_pending"`        // Queued remote splats before dropping
	ClientBuffer     int     `yaml:"client_buffer"`      // Frames queued per client before dropping
	MaxSplatDensity  float64 `yaml:"max_splat_density"`  // Clamp on remote density per splat
	MaxSplatVelocity float64 `yaml:"max_splat_velocity"` // Clamp on remote velocity per component
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Viscosity32     float32 // Solver.Viscosity as float32
	Diffusion32     float32 // Solver.Diffusion as float32
	FixedDT32       float32 // Solver.FixedDT as float32
	MaxDT32         float32 // Solver.MaxDT as float32
	HeadlessDT32    float32 // Solver.HeadlessDT as float32
	ScreenW32       float32 // Screen.Width as float32
	ScreenH32       float32 // Screen.Height as float32
	Tint32          [3]float32
	StatsWindowTick int // Telemetry.StatsWindow in headless ticks
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate reports every setting the solver cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Solver.N <= 0 {
		errs = append(errs, fmt.Errorf("solver.n must be positive, got %d", c.Solver.N))
	}
	if c.Solver.Iterations < 0 {
		errs = append(errs, fmt.Errorf("solver.iterations must not be negative, got %d", c.Solver.Iterations))
	}
	if c.Solver.Viscosity < 0 {
		errs = append(errs, fmt.Errorf("solver.viscosity must not be negative, got %g", c.Solver.Viscosity))
	}
	if c.Solver.Diffusion < 0 {
		errs = append(errs, fmt.Errorf("solver.diffusion must not be negative, got %g", c.Solver.Diffusion))
	}
	if c.Solver.FixedDT < 0 || c.Solver.MaxDT < 0 || c.Solver.HeadlessDT < 0 {
		errs = append(errs, errors.New("solver time steps must not be negative"))
	}
	if c.Controls.ViscosityMin > c.Controls.ViscosityMax {
		errs = append(errs, fmt.Errorf("controls viscosity range inverted: %g > %g", c.Controls.ViscosityMin, c.Controls.ViscosityMax))
	}
	if c.Controls.DiffusionMin > c.Controls.DiffusionMax {
		errs = append(errs, fmt.Errorf("controls diffusion range inverted: %g > %g", c.Controls.DiffusionMin, c.Controls.DiffusionMax))
	}
	switch c.Display.Palette {
	case "tint", "hue":
	default:
		errs = append(errs, fmt.Errorf("display.palette must be tint or hue, got %q", c.Display.Palette))
	}
	if c.Server.MaxSplatDensity < 0 || c.Server.MaxSplatVelocity < 0 {
		errs = append(errs, errors.New("server splat limits must not be negative"))
	}
	for _, e := range c.Emitters {
		if e.X < 0 || e.X > 1 || e.Y < 0 || e.Y > 1 {
			errs = append(errs, fmt.Errorf("emitter %q position (%g, %g) outside [0,1]", e.Name, e.X, e.Y))
		}
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Viscosity32 = float32(c.Solver.Viscosity)
	c.Derived.Diffusion32 = float32(c.Solver.Diffusion)
	c.Derived.FixedDT32 = float32(c.Solver.FixedDT)
	c.Derived.MaxDT32 = float32(c.Solver.MaxDT)
	c.Derived.HeadlessDT32 = float32(c.Solver.HeadlessDT)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	for i, v := range c.Display.Tint {
		c.Derived.Tint32[i] = float32(v)
	}

	if c.Display.PaletteSize <= 0 {
		c.Display.PaletteSize = 256
	}
	if c.Derived.HeadlessDT32 > 0 {
		c.Derived.StatsWindowTick = int(c.Telemetry.StatsWindow / c.Solver.HeadlessDT)
	}
	if c.Derived.StatsWindowTick < 1 {
		c.Derived.StatsWindowTick = 1
	}
}

// StepDT returns the solver time step for a frame that took frameTime seconds.
func (c *Config) StepDT(frameTime float32) float32 {
	if c.Derived.FixedDT32 > 0 {
		return c.Derived.FixedDT32
	}
	if c.Derived.MaxDT32 > 0 && frameTime > c.Derived.MaxDT32 {
		return c.Derived.MaxDT32
	}
	return frameTime
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
