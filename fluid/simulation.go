package fluid

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"
)

// Phase names reported to a PhaseTimer during Step.
const (
	PhaseVelocityDiffuse   = "velocity_diffuse"
	PhaseVelocityProject   = "velocity_project"
	PhaseVelocityAdvect    = "velocity_advect"
	PhaseVelocityReproject = "velocity_reproject"
	PhaseDensityDiffuse    = "density_diffuse"
	PhaseDensityAdvect     = "density_advect"
)

// StepPhases lists the Step phases in execution order.
var StepPhases = []string{
	PhaseVelocityDiffuse,
	PhaseVelocityProject,
	PhaseVelocityAdvect,
	PhaseVelocityReproject,
	PhaseDensityDiffuse,
	PhaseDensityAdvect,
}

// PhaseTimer receives a call at the start of each Step phase.
type PhaseTimer interface {
	StartPhase(phase string)
}

// Simulation owns every buffer of a running fluid: velocity components and
// density, each with a previous-generation scratch grid.
type Simulation struct {
	N       int
	U       Field
	V       Field
	Density Field
	Solver  Solver

	// Phases is optional; when set it is notified as Step advances.
	Phases PhaseTimer
}

// New allocates a simulation of resolution n with the default solver.
func New(n int) *Simulation {
	if n <= 0 {
		panic(fmt.Sprintf("fluid: invalid resolution %d", n))
	}
	return &Simulation{
		N:       n,
		U:       NewField(n, VelocityX),
		V:       NewField(n, VelocityY),
		Density: NewField(n, Scalar),
		Solver:  NewSolver(DefaultIterations),
	}
}

// Reset zeroes all buffers.
func (s *Simulation) Reset() {
	s.U.Clear()
	s.V.Clear()
	s.Density.Clear()
}

// Step advances the fluid by dt. Velocity is diffused, projected,
// self-advected and projected again; density is then diffused and advected
// along the final velocity. The order is fixed.
func (s *Simulation) Step(dt, viscosity, diffusion float32) {
	u, v, d := &s.U, &s.V, &s.Density

	s.phase(PhaseVelocityDiffuse)
	u.Swap()
	v.Swap()
	s.Solver.Diffuse(u.Kind, u.Cur, u.Prev, viscosity, dt)
	s.Solver.Diffuse(v.Kind, v.Cur, v.Prev, viscosity, dt)

	s.phase(PhaseVelocityProject)
	s.Solver.Project(u.Cur, v.Cur, u.Prev, v.Prev)

	s.phase(PhaseVelocityAdvect)
	u.Swap()
	v.Swap()
	Advect(u.Kind, u.Cur, u.Prev, u.Prev, v.Prev, dt)
	Advect(v.Kind, v.Cur, v.Prev, u.Prev, v.Prev, dt)

	s.phase(PhaseVelocityReproject)
	s.Solver.Project(u.Cur, v.Cur, u.Prev, v.Prev)

	s.phase(PhaseDensityDiffuse)
	d.Swap()
	s.Solver.Diffuse(d.Kind, d.Cur, d.Prev, diffusion, dt)

	s.phase(PhaseDensityAdvect)
	d.Swap()
	Advect(d.Kind, d.Cur, d.Prev, u.Cur, v.Cur, dt)
}

func (s *Simulation) phase(name string) {
	if s.Phases != nil {
		s.Phases.StartPhase(name)
	}
}

// AddDensity injects density at interior cell (x, y).
func (s *Simulation) AddDensity(x, y int, amount float32) bool {
	return AddSource(x, y, s.Density.Cur, amount)
}

// AddVelocity injects velocity (du, dv) at interior cell (x, y).
func (s *Simulation) AddVelocity(x, y int, du, dv float32) bool {
	okU := AddSource(x, y, s.U.Cur, du)
	okV := AddSource(x, y, s.V.Cur, dv)
	return okU && okV
}

// DensityInterior copies the N×N interior of the density grid into dst,
// row by row: cell (i, j) lands at (i-1) + N*(j-1). dst is grown if needed
// and returned.
func (s *Simulation) DensityInterior(dst []float32) []float32 {
	return Interior(s.Density.Cur, dst)
}

// Interior copies the N×N interior of g into dst in row-major order.
func Interior(g *Grid, dst []float32) []float32 {
	n := g.N
	if cap(dst) < n*n {
		dst = make([]float32, n*n)
	}
	dst = dst[:n*n]
	for j := 1; j <= n; j++ {
		blas32.Copy(rowVector(g.Row(j)), rowVector(dst[n*(j-1):n*j]))
	}
	return dst
}
