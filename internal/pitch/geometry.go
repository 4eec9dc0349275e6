package pitch

import "math"

func distance(ax, ay, bx, by float64) float64 {
	return math.Hypot(ax-bx, ay-by)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(from, to, t float64) float64 {
	return from + (to-from)*t
}

// stepToward moves (x, y) the given fraction of the remaining distance to
// (tx, ty).
func stepToward(x, y, tx, ty, fraction float64) (float64, float64) {
	return x + (tx-x)*fraction, y + (ty-y)*fraction
}

func inbounds(x, y float64) (float64, float64) {
	return clamp(x, FieldMin, FieldMax), clamp(y, FieldMin, FieldMax)
}
