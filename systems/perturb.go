package systems

import (
	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/stablefluids/config"
	"github.com/pthm-cable/stablefluids/fluid"
)

// Offset between the noise samples for u and v so the components are
// uncorrelated.
const componentOffset = 1000

// SeedNoise adds a coherent opensimplex velocity perturbation to sim and
// projects the result so the seeded flow starts divergence-free.
// It does nothing when noise is disabled.
func SeedNoise(sim *fluid.Simulation, cfg config.NoiseConfig) {
	if !cfg.Enabled || cfg.Amplitude == 0 {
		return
	}
	scale := cfg.Scale
	if scale <= 0 {
		scale = 1
	}

	noise := opensimplex.New(cfg.Seed)
	u, v := sim.U.Cur, sim.V.Cur
	for j := 1; j <= sim.N; j++ {
		for i := 1; i <= sim.N; i++ {
			x, y := float64(i)/scale, float64(j)/scale
			u.Set(i, j, u.At(i, j)+float32(cfg.Amplitude*noise.Eval2(x, y)))
			v.Set(i, j, v.At(i, j)+float32(cfg.Amplitude*noise.Eval2(x+componentOffset, y+componentOffset)))
		}
	}
	fluid.SetBoundary(fluid.VelocityX, u)
	fluid.SetBoundary(fluid.VelocityY, v)
	sim.Solver.Project(u, v, sim.U.Prev, sim.V.Prev)
}
