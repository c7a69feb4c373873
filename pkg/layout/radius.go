package layout

import "math"

// Radii maps magnitudes linearly onto [minR, maxR]. The smallest finite
// magnitude gets minR and the largest gets maxR; when all finite magnitudes
// are equal every node gets the midpoint. Non-finite magnitudes get minR.
func Radii(magnitudes []float64, minR, maxR float64) []float64 {
	out := make([]float64, len(magnitudes))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, m := range magnitudes {
		if !finite(m) {
			continue
		}
		lo = math.Min(lo, m)
		hi = math.Max(hi, m)
	}

	span := hi - lo
	for i, m := range magnitudes {
		switch {
		case !finite(m):
			out[i] = minR
		case span <= 0:
			out[i] = (minR + maxR) / 2
		default:
			out[i] = minR + (m-lo)/span*(maxR-minR)
		}
	}
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
