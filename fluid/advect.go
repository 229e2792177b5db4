package fluid

// Advect transports d0 along (u, v) into d by tracing each interior cell
// backward over dt and resampling d0 bilinearly at the departure point.
func Advect(kind Kind, d, d0, u, v *Grid, dt float32) {
	n := d.N
	stride := n + 2
	dt0 := dt * float32(n)
	lo := float32(0.5)
	hi := float32(n) + 0.5

	dc, sc, uc, vc := d.Cells, d0.Cells, u.Cells, v.Cells

	for i := 1; i <= n; i++ {
		for j := 1; j <= n; j++ {
			c := i + stride*j
			x := float32(i) - dt0*uc[c]
			y := float32(j) - dt0*vc[c]

			// Keep all four bilinear corners inside the padded buffer.
			if x < lo {
				x = lo
			}
			if x > hi {
				x = hi
			}
			if y < lo {
				y = lo
			}
			if y > hi {
				y = hi
			}

			i0 := int(x)
			j0 := int(y)
			fx := x - float32(i0)
			fy := y - float32(j0)

			s := i0 + stride*j0
			dc[c] = bilerp(sc[s], sc[s+stride], sc[s+1], sc[s+1+stride], fx, fy)
		}
	}
	SetBoundary(kind, d)
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// bilerp blends along y in the left and right columns, then along x.
func bilerp(bottomLeft, topLeft, bottomRight, topRight, tx, ty float32) float32 {
	left := lerp(bottomLeft, topLeft, ty)
	right := lerp(bottomRight, topRight, ty)
	return lerp(left, right, tx)
}
