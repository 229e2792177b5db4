package systems

import "math"

// clamp01 clamps a float32 value to the [0, 1] range.
func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// normalizeAngle wraps an angle to [-Pi, Pi].
func normalizeAngle(angle float32) float32 {
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}

// rotate turns (x, y) counter-clockwise by angle radians.
func rotate(x, y, angle float32) (float32, float32) {
	sin, cos := math.Sincos(float64(angle))
	s, c := float32(sin), float32(cos)
	return x*c - y*s, x*s + y*c
}

// gridCell maps a fraction in [0,1] to the nearest interior cell of an
// n-cell axis.
func gridCell(frac float32, n int) int {
	return 1 + int(clamp01(frac)*float32(n-1)+0.5)
}
