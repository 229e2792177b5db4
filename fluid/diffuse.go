package fluid

// Diffuse relaxes x toward the implicit-diffusion solution seeded by x0.
// x is updated in place and its previous contents are the initial guess.
// With dt*diff == 0 the result is x0 with its boundary re-enforced.
func (s Solver) Diffuse(kind Kind, x, x0 *Grid, diff, dt float32) {
	n := x.N
	stride := n + 2
	a := dt * diff * float32(n) * float32(n)
	denom := 1.0 + 4.0*a

	cur := x.Cells
	src := x0.Cells
	Relax(x, kind, s.iterations(), func(i, j int) float32 {
		c := i + stride*j
		return (src[c] + a*(cur[c+1]+cur[c-1]+cur[c-stride]+cur[c+stride])) / denom
	})
}
