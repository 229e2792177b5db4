package input

import (
	"testing"

	"github.com/pthm-cable/stablefluids/fluid"
)

func TestMapperCell(t *testing.T) {
	m := Mapper{N: 10, Width: 100, Height: 200}
	tests := []struct {
		name         string
		mx, my       float32
		wantX, wantY int
	}{
		{"top-left corner", 0, 0, 1, 10},
		{"bottom-left", 0, 199, 1, 1},
		{"center", 50, 100, 6, 5},
		{"right edge inside", 99, 100, 10, 5},
		{"left of window", -5, 100, 0, 5},
		{"right of window", 150, 100, 11, 5},
		{"above window", 50, -1, 6, 11},
		{"below window", 50, 300, 6, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := m.Cell(tt.mx, tt.my)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("Cell(%v, %v) = (%d, %d), want (%d, %d)", tt.mx, tt.my, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestMapperZeroWindow(t *testing.T) {
	x, y := Mapper{N: 8}.Cell(3, 3)
	if x != 0 || y != 0 {
		t.Errorf("Cell on zero-size window = (%d, %d), want ghost (0, 0)", x, y)
	}
}

func newDrag(n int) *Drag {
	return &Drag{
		Mapper:        Mapper{N: n, Width: float32(n * 10), Height: float32(n * 10)},
		DensityAmount: 100,
		VelocityScale: 3,
	}
}

func TestDragInjects(t *testing.T) {
	sim := fluid.New(8)
	d := newDrag(8)

	// First sample only establishes the previous position.
	d.Apply(sim, Pointer{X: 40, Y: 40})
	got := d.Apply(sim, Pointer{X: 45, Y: 38, Down: true})
	if got != 100 {
		t.Fatalf("Apply returned %v, want 100", got)
	}

	x, y := d.Mapper.Cell(45, 38)
	if sim.Density.Cur.At(x, y) != 100 {
		t.Errorf("density = %v, want 100", sim.Density.Cur.At(x, y))
	}
	if u := sim.U.Cur.At(x, y); u != 15 {
		t.Errorf("u = %v, want 5*3", u)
	}
	// Moving up the screen pushes fluid up the grid.
	if v := sim.V.Cur.At(x, y); v != 6 {
		t.Errorf("v = %v, want -(-2)*3", v)
	}
}

func TestDragSuppressed(t *testing.T) {
	tests := []struct {
		name string
		p    Pointer
	}{
		{"released", Pointer{X: 40, Y: 40}},
		{"captured by ui", Pointer{X: 40, Y: 40, Down: true, Captured: true}},
		{"off window", Pointer{X: -10, Y: 40, Down: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := fluid.New(8)
			d := newDrag(8)
			if got := d.Apply(sim, tt.p); got != 0 {
				t.Errorf("Apply = %v, want 0", got)
			}
			if sim.Density.Cur.Sum() != 0 {
				t.Error("density injected")
			}
		})
	}
}

func TestDragTracksPositionWhileCaptured(t *testing.T) {
	sim := fluid.New(8)
	d := newDrag(8)
	d.Apply(sim, Pointer{X: 10, Y: 10, Down: true, Captured: true})
	d.Apply(sim, Pointer{X: 30, Y: 10, Down: true, Captured: true})
	d.Apply(sim, Pointer{X: 32, Y: 10, Down: true})

	x, y := d.Mapper.Cell(32, 10)
	if u := sim.U.Cur.At(x, y); u != 6 {
		t.Errorf("u = %v, want displacement from last captured sample (2*3)", u)
	}
}
