package fluid

// AddSource adds amount to interior cell (x, y) of g. Coordinates outside
// [1, N] are silently ignored so callers may pass unclamped input.
func AddSource(x, y int, g *Grid, amount float32) bool {
	if x < 1 || x > g.N || y < 1 || y > g.N {
		return false
	}
	g.Cells[x+(g.N+2)*y] += amount
	return true
}
