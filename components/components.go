// Package components defines ECS components for scripted fluid sources.
package components

// Position is an emitter location as a fraction of the grid, [0,1] on
// each axis with y pointing up.
type Position struct {
	X, Y float32
}

// Emission is what an emitter injects every tick.
type Emission struct {
	Density float32
	VX, VY  float32 // Jet velocity before spin is applied
}

// Spin rotates the jet direction over time.
type Spin struct {
	Rate  float32 // Radians per second
	Angle float32 // Current rotation
}

// Lifetime removes an emitter once Remaining reaches zero.
type Lifetime struct {
	Remaining float32
	Finite    bool
}

// Label names an emitter for logs.
type Label struct {
	Name string
}
