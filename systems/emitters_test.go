package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/stablefluids/config"
	"github.com/pthm-cable/stablefluids/fluid"
)

func TestGridCell(t *testing.T) {
	tests := []struct {
		frac float32
		n    int
		want int
	}{
		{0, 8, 1},
		{1, 8, 8},
		{0.5, 9, 5},
		{-2, 8, 1},
		{3, 8, 8},
		{0.5, 1, 1},
	}
	for _, tt := range tests {
		if got := gridCell(tt.frac, tt.n); got != tt.want {
			t.Errorf("gridCell(%v, %d) = %d, want %d", tt.frac, tt.n, got, tt.want)
		}
	}
}

func TestRotate(t *testing.T) {
	x, y := rotate(1, 0, math.Pi/2)
	if math.Abs(float64(x)) > 1e-6 || math.Abs(float64(y-1)) > 1e-6 {
		t.Errorf("rotate(1,0,pi/2) = (%v,%v), want (0,1)", x, y)
	}
}

func TestEmitterSystemInjects(t *testing.T) {
	sim := fluid.New(8)
	es := NewEmitterSystem([]config.EmitterConfig{
		{Name: "jet", X: 0, Y: 1, Density: 5, VX: 2, VY: -1},
	})
	es.Spawn()
	if es.Count() != 1 {
		t.Fatalf("Count = %d, want 1", es.Count())
	}

	injected := es.Update(sim, 0.1)
	if injected != 5 {
		t.Errorf("injected = %v, want 5", injected)
	}
	if got := sim.Density.Cur.At(1, 8); got != 5 {
		t.Errorf("density at (1,8) = %v, want 5", got)
	}
	if got := sim.U.Cur.At(1, 8); got != 2 {
		t.Errorf("u at (1,8) = %v, want 2", got)
	}
	if got := sim.V.Cur.At(1, 8); got != -1 {
		t.Errorf("v at (1,8) = %v, want -1", got)
	}
}

func TestEmitterSystemSpin(t *testing.T) {
	sim := fluid.New(8)
	es := NewEmitterSystem(nil)
	es.Add(config.EmitterConfig{Name: "spinner", X: 0.5, Y: 0.5, VX: 1, Spin: math.Pi / 2})

	es.Update(sim, 1) // injects at angle 0, then turns a quarter
	sim.Reset()
	es.Update(sim, 1)

	x := gridCell(0.5, 8)
	if u := sim.U.Cur.At(x, x); math.Abs(float64(u)) > 1e-6 {
		t.Errorf("u after quarter turn = %v, want 0", u)
	}
	if v := sim.V.Cur.At(x, x); math.Abs(float64(v-1)) > 1e-6 {
		t.Errorf("v after quarter turn = %v, want 1", v)
	}
}

func TestEmitterSystemLifetime(t *testing.T) {
	sim := fluid.New(8)
	es := NewEmitterSystem([]config.EmitterConfig{
		{Name: "short", X: 0.5, Y: 0.5, Density: 1, Lifetime: 0.25},
		{Name: "forever", X: 0.2, Y: 0.2, Density: 1},
	})
	es.Spawn()

	for i := 0; i < 2; i++ {
		es.Update(sim, 0.1)
	}
	if es.Count() != 2 {
		t.Fatalf("Count = %d after 0.2s, want 2", es.Count())
	}
	es.Update(sim, 0.1)
	if es.Count() != 1 {
		t.Fatalf("Count = %d after 0.3s, want 1", es.Count())
	}

	if injected := es.Update(sim, 0.1); injected != 1 {
		t.Errorf("injected = %v with only the permanent emitter, want 1", injected)
	}
}

func TestEmitterSystemReset(t *testing.T) {
	es := NewEmitterSystem([]config.EmitterConfig{
		{Name: "a", X: 0.5, Y: 0.5, Density: 1, Lifetime: 0.1},
	})
	es.Spawn()
	es.Update(fluid.New(4), 1)
	if es.Count() != 0 {
		t.Fatalf("Count = %d after expiry, want 0", es.Count())
	}

	es.Add(config.EmitterConfig{Name: "extra", X: 0.1, Y: 0.1})
	es.Reset()
	if es.Count() != 1 {
		t.Errorf("Count = %d after Reset, want the one configured emitter", es.Count())
	}
}
