package fluid

// SetBoundary recomputes the ghost ring of g from its interior.
// Edges mirror the adjacent interior cell; the component normal to a wall
// is negated there (VelocityX on the left/right columns, VelocityY on the
// top/bottom rows), which enforces no-penetration for velocity and zero
// flux for scalars. Corners average their two adjacent ghost cells.
func SetBoundary(kind Kind, g *Grid) {
	n := g.N
	x := g.Cells
	stride := n + 2

	for k := 1; k <= n; k++ {
		row := stride * k
		if kind == VelocityX {
			x[row] = -x[row+1]
			x[row+n+1] = -x[row+n]
		} else {
			x[row] = x[row+1]
			x[row+n+1] = x[row+n]
		}

		if kind == VelocityY {
			x[k] = -x[k+stride]
			x[k+stride*(n+1)] = -x[k+stride*n]
		} else {
			x[k] = x[k+stride]
			x[k+stride*(n+1)] = x[k+stride*n]
		}
	}

	x[Index(n, 0, 0)] = 0.5 * (x[Index(n, 1, 0)] + x[Index(n, 0, 1)])
	x[Index(n, 0, n+1)] = 0.5 * (x[Index(n, 1, n+1)] + x[Index(n, 0, n)])
	x[Index(n, n+1, 0)] = 0.5 * (x[Index(n, n, 0)] + x[Index(n, n+1, 1)])
	x[Index(n, n+1, n+1)] = 0.5 * (x[Index(n, n, n+1)] + x[Index(n, n+1, n)])
}
