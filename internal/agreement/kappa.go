// Package agreement implements inter-rater agreement statistics for 0-10
// scores. Undefined statistics are reported as NaN rather than errors.
package agreement

import "math"

// scoreBin maps a 0-10 score to a discrete half-point category (0..20).
// Ties round half to even, so a score ending in .25 or .75 lands in the
// same bin the reference reports used.
func scoreBin(x float64) int {
	return int(math.RoundToEven(x * 2))
}

// FiniteOrNil returns a pointer to x, or nil when x is NaN or infinite.
// Used to serialize undefined statistics as JSON null.
func FiniteOrNil(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

// WeightedKappa computes quadratic-weighted Cohen's kappa between two
// aligned rating slices. Returns NaN when the inputs are empty, unaligned,
// cover fewer than two categories, or chance agreement is degenerate.
func WeightedKappa(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return math.NaN()
	}

	binsA := make([]int, len(a))
	binsB := make([]int, len(b))
	maxBin := 0
	distinct := make(map[int]struct{})
	for i := range a {
		binsA[i] = scoreBin(a[i])
		binsB[i] = scoreBin(b[i])
		if binsA[i] > maxBin {
			maxBin = binsA[i]
		}
		if binsB[i] > maxBin {
			maxBin = binsB[i]
		}
		distinct[binsA[i]] = struct{}{}
		distinct[binsB[i]] = struct{}{}
	}

	nCat := maxBin + 1
	if nCat < 2 || len(distinct) < 2 {
		return math.NaN()
	}

	// Observed proportions.
	obs := make([][]float64, nCat)
	for i := range obs {
		obs[i] = make([]float64, nCat)
	}
	total := 0.0
	for i := range binsA {
		ra, rb := binsA[i], binsB[i]
		if ra < 0 || rb < 0 || ra >= nCat || rb >= nCat {
			continue
		}
		obs[ra][rb]++
		total++
	}
	if total == 0 {
		return math.NaN()
	}

	rowSums := make([]float64, nCat)
	colSums := make([]float64, nCat)
	for i := 0; i < nCat; i++ {
		for j := 0; j < nCat; j++ {
			obs[i][j] /= total
			rowSums[i] += obs[i][j]
		}
	}
	for j := 0; j < nCat; j++ {
		for i := 0; i < nCat; i++ {
			colSums[j] += obs[i][j]
		}
	}

	denomW := float64((nCat - 1) * (nCat - 1))
	var num, den float64
	for i := 0; i < nCat; i++ {
		for j := 0; j < nCat; j++ {
			w := float64((i-j)*(i-j)) / denomW
			num += w * obs[i][j]
			den += w * rowSums[i] * colSums[j]
		}
	}
	if den == 0 {
		return math.NaN()
	}
	return 1 - num/den
}

// PairwiseKappa computes the mean weighted kappa over all rater pairs.
// ratings maps answer -> rater -> score. A pair contributes only when it
// shares at least two answers and its kappa is defined. The second return
// is the number of contributing pairs.
func PairwiseKappa(ratings map[string]map[string]float64, raters []string) (float64, int) {
	var vals []float64
	for i := 0; i < len(raters); i++ {
		for j := i + 1; j < len(raters); j++ {
			var a, b []float64
			for _, byRater := range ratings {
				sa, okA := byRater[raters[i]]
				sb, okB := byRater[raters[j]]
				if okA && okB {
					a = append(a, sa)
					b = append(b, sb)
				}
			}
			if len(a) < 2 {
				continue
			}
			if k := WeightedKappa(a, b); !math.IsNaN(k) {
				vals = append(vals, k)
			}
		}
	}
	if len(vals) == 0 {
		return math.NaN(), 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals)), len(vals)
}
