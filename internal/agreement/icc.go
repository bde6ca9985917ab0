package agreement

import "math"

// ICC2k computes the two-way random, average-measures intraclass
// correlation ICC(2,k). Rows are rated targets, columns are raters; NaN
// cells are imputed with the rater's column mean. Returns NaN when there
// are fewer than 2 targets or 2 raters, or when a rater has no scores.
func ICC2k(scores [][]float64) float64 {
	n := len(scores)
	if n < 2 {
		return math.NaN()
	}
	k := len(scores[0])
	if k < 2 {
		return math.NaN()
	}
	for _, row := range scores {
		if len(row) != k {
			return math.NaN()
		}
	}

	// Work on a copy; impute missing cells with column means.
	x := make([][]float64, n)
	for i := range scores {
		x[i] = append([]float64(nil), scores[i]...)
	}
	for j := 0; j < k; j++ {
		sum, count := 0.0, 0
		for i := 0; i < n; i++ {
			if !math.IsNaN(x[i][j]) {
				sum += x[i][j]
				count++
			}
		}
		if count == 0 {
			return math.NaN()
		}
		mean := sum / float64(count)
		for i := 0; i < n; i++ {
			if math.IsNaN(x[i][j]) {
				x[i][j] = mean
			}
		}
	}

	grand := 0.0
	targetMeans := make([]float64, n)
	raterMeans := make([]float64, k)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			grand += x[i][j]
			targetMeans[i] += x[i][j]
			raterMeans[j] += x[i][j]
		}
	}
	grand /= float64(n * k)
	for i := range targetMeans {
		targetMeans[i] /= float64(k)
	}
	for j := range raterMeans {
		raterMeans[j] /= float64(n)
	}

	var sst, ssr, ssc float64
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			d := x[i][j] - grand
			sst += d * d
		}
	}
	for j := 0; j < k; j++ {
		d := raterMeans[j] - grand
		ssr += float64(n) * d * d
	}
	for i := 0; i < n; i++ {
		d := targetMeans[i] - grand
		ssc += float64(k) * d * d
	}
	sse := sst - ssr - ssc

	msr := ssr / float64(k-1)
	msc := ssc / float64(n-1)
	mse := sse / float64((n-1)*(k-1))

	return (msc - mse) / (msc + (msr-mse)/float64(n))
}
