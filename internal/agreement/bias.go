package agreement

import "math"

// BiasLoA computes the mean auto-minus-human difference and the 1.96-sigma
// Bland-Altman limits of agreement. With a single difference the limits
// collapse onto the bias; with none, all three values are NaN.
func BiasLoA(diffs []float64) (bias, low, high float64) {
	if len(diffs) == 0 {
		nan := math.NaN()
		return nan, nan, nan
	}

	mean := 0.0
	for _, d := range diffs {
		mean += d
	}
	mean /= float64(len(diffs))

	sd := 0.0
	if len(diffs) > 1 {
		var ss float64
		for _, d := range diffs {
			ss += (d - mean) * (d - mean)
		}
		sd = math.Sqrt(ss / float64(len(diffs)-1))
	}

	return mean, mean - 1.96*sd, mean + 1.96*sd
}
