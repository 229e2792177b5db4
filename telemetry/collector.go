package telemetry

import "github.com/pthm-cable/stablefluids/fluid"

// Collector accumulates injection events within time windows and produces
// WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	windowStartTick int32
	simTime         float64

	// Counters for current window
	injectedMass float64
	splats       int

	sampler FieldSampler
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: nominal seconds per tick (used for tick-to-window conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(1)
	if dt > 0 {
		ticksPerWindow = int32(windowDurationSec / float64(dt))
	}
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordInjection records density added to the field.
func (c *Collector) RecordInjection(amount float32) {
	c.injectedMass += float64(amount)
}

// RecordSplat records one remote splat applied between ticks.
func (c *Collector) RecordSplat() {
	c.splats++
}

// AdvanceTime adds one tick's dt to simulated time. Frame-time runs use
// this instead of tick*dt, since their dt varies.
func (c *Collector) AdvanceTime(dt float32) {
	c.simTime += float64(dt)
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the current field and resets counters
// for the next window.
func (c *Collector) Flush(currentTick int32, sim *fluid.Simulation, emitters int) WindowStats {
	fs := c.sampler.Sample(sim)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      c.simTime,

		Mass:        fs.Mass,
		DensityMax:  fs.DensityMax,
		DensityMean: fs.DensityMean,
		DensityStd:  fs.DensityStd,
		DensityP50:  fs.DensityP50,
		DensityP90:  fs.DensityP90,

		KineticEnergy: fs.KineticEnergy,
		MaxDivergence: fs.MaxDivergence,

		InjectedMass: c.injectedMass,
		Splats:       c.splats,
		Emitters:     emitters,
	}

	c.windowStartTick = currentTick
	c.injectedMass = 0
	c.splats = 0

	return stats
}

// Reset restarts windowing and simulated time, as after a field clear.
func (c *Collector) Reset(currentTick int32) {
	c.windowStartTick = currentTick
	c.simTime = 0
	c.injectedMass = 0
	c.splats = 0
}
