package fluid

// Project removes the divergent part of (u, v) by solving a Poisson equation
// for pressure into p and subtracting its gradient. p and div are scratch and
// fully overwritten.
func (s Solver) Project(u, v, p, div *Grid) {
	n := u.N
	stride := n + 2
	h := 1.0 / float32(n)

	uc, vc, pc, dc := u.Cells, v.Cells, p.Cells, div.Cells

	for i := 1; i <= n; i++ {
		for j := 1; j <= n; j++ {
			c := i + stride*j
			dc[c] = -0.5 * h * (uc[c+1] - uc[c-1] + vc[c+stride] - vc[c-stride])
			pc[c] = 0
		}
	}
	SetBoundary(Scalar, div)
	SetBoundary(Scalar, p)

	Relax(p, Scalar, s.iterations(), func(i, j int) float32 {
		c := i + stride*j
		return 0.25 * (dc[c] + pc[c-1] + pc[c+1] + pc[c-stride] + pc[c+stride])
	})

	for i := 1; i <= n; i++ {
		for j := 1; j <= n; j++ {
			c := i + stride*j
			uc[c] -= 0.5 * (pc[c+1] - pc[c-1]) / h
			vc[c] -= 0.5 * (pc[c+stride] - pc[c-stride]) / h
		}
	}
	SetBoundary(VelocityX, u)
	SetBoundary(VelocityY, v)
}

// Divergence writes the scaled central-difference divergence of (u, v) into
// the interior of div, using the same operator as Project, and returns the
// largest magnitude found. The ghost ring of div is left untouched.
func Divergence(u, v, div *Grid) float32 {
	n := u.N
	stride := n + 2
	h := 1.0 / float32(n)

	uc, vc, dc := u.Cells, v.Cells, div.Cells

	var maxAbs float32
	for i := 1; i <= n; i++ {
		for j := 1; j <= n; j++ {
			c := i + stride*j
			d := -0.5 * h * (uc[c+1] - uc[c-1] + vc[c+stride] - vc[c-stride])
			dc[c] = d
			if d < 0 {
				d = -d
			}
			if d > maxAbs {
				maxAbs = d
			}
		}
	}
	return maxAbs
}
