// Package fluid implements a fixed-resolution Stable Fluids solver on a
// padded square grid: boundary enforcement, implicit diffusion, pressure
// projection and semi-Lagrangian advection.
package fluid

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas32"
)

// Kind selects the boundary mirroring rule for a grid.
type Kind uint8

const (
	Scalar    Kind = iota // density, pressure, divergence
	VelocityX             // horizontal velocity component
	VelocityY             // vertical velocity component
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case VelocityX:
		return "velocity_x"
	case VelocityY:
		return "velocity_y"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Index maps (i, j) in [0, n+1]² to an offset in a grid of resolution n.
// i is the column (x) and j the row (y).
func Index(n, i, j int) int {
	return i + (n+2)*j
}

// Grid is an (N+2)x(N+2) array of cells with a one-cell ghost ring.
type Grid struct {
	N     int
	Cells []float32
}

// NewGrid allocates a zeroed grid of resolution n.
func NewGrid(n int) *Grid {
	if n <= 0 {
		panic(fmt.Sprintf("fluid: invalid resolution %d", n))
	}
	return &Grid{
		N:     n,
		Cells: make([]float32, (n+2)*(n+2)),
	}
}

// Index returns the flat offset of (i, j).
func (g *Grid) Index(i, j int) int {
	return i + (g.N+2)*j
}

// At returns the value at (i, j).
func (g *Grid) At(i, j int) float32 {
	return g.Cells[i+(g.N+2)*j]
}

// Set writes the value at (i, j).
func (g *Grid) Set(i, j int, v float32) {
	g.Cells[i+(g.N+2)*j] = v
}

// Clear zeroes every cell, ghost ring included.
func (g *Grid) Clear() {
	clear(g.Cells)
}

// CopyFrom overwrites g with the contents of src. Both grids must share N.
func (g *Grid) CopyFrom(src *Grid) {
	if src.N != g.N {
		panic(fmt.Sprintf("fluid: copy between resolutions %d and %d", src.N, g.N))
	}
	blas32.Copy(src.vector(), g.vector())
}

// Sum returns the sum of the interior cells.
func (g *Grid) Sum() float32 {
	var total float32
	for j := 1; j <= g.N; j++ {
		for _, v := range g.Row(j) {
			total += v
		}
	}
	return total
}

// Row returns the interior cells of row j, i = 1..N, aliasing the grid.
func (g *Grid) Row(j int) []float32 {
	return g.Cells[g.Index(1, j) : g.Index(g.N, j)+1]
}

func (g *Grid) vector() blas32.Vector {
	return rowVector(g.Cells)
}

func rowVector(data []float32) blas32.Vector {
	return blas32.Vector{N: len(data), Inc: 1, Data: data}
}

// Field pairs the current grid of a quantity with its previous-generation
// scratch grid.
type Field struct {
	Kind Kind
	Cur  *Grid
	Prev *Grid
}

// NewField allocates both generations of a field.
func NewField(n int, kind Kind) Field {
	return Field{
		Kind: kind,
		Cur:  NewGrid(n),
		Prev: NewGrid(n),
	}
}

// Swap exchanges the current and previous grids.
func (f *Field) Swap() {
	f.Cur, f.Prev = f.Prev, f.Cur
}

// Clear zeroes both generations.
func (f *Field) Clear() {
	f.Cur.Clear()
	f.Prev.Clear()
}
