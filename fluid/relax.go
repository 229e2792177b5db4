package fluid

// DefaultIterations is the fixed Gauss-Seidel sweep count used by diffusion
// and projection. It is a frame-cost budget, not a convergence criterion.
const DefaultIterations = 20

// CellRule computes the new value of interior cell (i, j) during a sweep.
type CellRule func(i, j int) float32

// Relax runs iters in-place sweeps of rule over the interior of g, i outer
// and j inner, so every cell sees neighbors already updated in the same
// sweep. The ghost ring is re-enforced after each sweep.
func Relax(g *Grid, kind Kind, iters int, rule CellRule) {
	n := g.N
	for k := 0; k < iters; k++ {
		for i := 1; i <= n; i++ {
			for j := 1; j <= n; j++ {
				g.Cells[i+(n+2)*j] = rule(i, j)
			}
		}
		SetBoundary(kind, g)
	}
}

// Solver carries the relaxation budget shared by diffusion and projection.
type Solver struct {
	Iterations int
}

// NewSolver returns a solver with the given sweep count.
// Non-positive counts fall back to DefaultIterations.
func NewSolver(iterations int) Solver {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return Solver{Iterations: iterations}
}

func (s Solver) iterations() int {
	if s.Iterations <= 0 {
		return DefaultIterations
	}
	return s.Iterations
}
