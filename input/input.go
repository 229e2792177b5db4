// Package input turns pointer activity into fluid sources.
package input

import "github.com/pthm-cable/stablefluids/fluid"

// Mapper converts window coordinates to grid cells. Window y grows
// downward, grid y grows upward.
type Mapper struct {
	N             int
	Width, Height float32
}

// Cell returns the grid cell under window point (mx, my). Points off the
// window land in the ghost ring, where AddSource ignores them.
func (m Mapper) Cell(mx, my float32) (int, int) {
	if m.Width <= 0 || m.Height <= 0 {
		return 0, 0
	}
	x := cellIndex(mx/m.Width, m.N)
	row := cellIndex(my/m.Height, m.N)
	return x, m.N + 1 - row
}

// cellIndex maps [0,1) onto cells 1..n, below onto 0 and above onto n+1.
func cellIndex(frac float32, n int) int {
	if frac < 0 {
		return 0
	}
	c := int(frac*float32(n)) + 1
	if c > n+1 {
		return n + 1
	}
	return c
}

// Pointer is the pointer state sampled once per frame.
type Pointer struct {
	X, Y     float32
	Down     bool
	Captured bool // over a UI widget
}

// Drag injects density and velocity while the pointer is held, scaled by
// the pointer displacement since the previous frame.
type Drag struct {
	Mapper        Mapper
	DensityAmount float32
	VelocityScale float32

	prevX, prevY float32
	seen         bool
}

// Apply injects sources for p into sim and remembers p as the previous
// sample. It returns the density added.
func (d *Drag) Apply(sim *fluid.Simulation, p Pointer) float32 {
	dx, dy := float32(0), float32(0)
	if d.seen {
		dx, dy = p.X-d.prevX, p.Y-d.prevY
	}
	d.prevX, d.prevY, d.seen = p.X, p.Y, true

	if !p.Down || p.Captured {
		return 0
	}

	x, y := d.Mapper.Cell(p.X, p.Y)
	if !sim.AddDensity(x, y, d.DensityAmount) {
		return 0
	}
	sim.AddVelocity(x, y, dx*d.VelocityScale, -dy*d.VelocityScale)
	return d.DensityAmount
}
