package agreement

import (
	"math"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestWeightedKappa(t *testing.T) {
	t.Run("perfect agreement over two categories", func(t *testing.T) {
		got := WeightedKappa([]float64{0, 1, 0, 1}, []float64{0, 1, 0, 1})
		if !approx(got, 1) {
			t.Errorf("kappa = %v, want 1", got)
		}
	})

	t.Run("single category is undefined", func(t *testing.T) {
		got := WeightedKappa([]float64{5, 5, 5}, []float64{5, 5, 5})
		if !math.IsNaN(got) {
			t.Errorf("kappa = %v, want NaN", got)
		}
	})

	t.Run("empty input is undefined", func(t *testing.T) {
		if got := WeightedKappa(nil, nil); !math.IsNaN(got) {
			t.Errorf("kappa = %v, want NaN", got)
		}
	})

	t.Run("mismatched lengths are undefined", func(t *testing.T) {
		if got := WeightedKappa([]float64{1, 2}, []float64{1}); !math.IsNaN(got) {
			t.Errorf("kappa = %v, want NaN", got)
		}
	})

	t.Run("disagreement scores below perfect", func(t *testing.T) {
		got := WeightedKappa([]float64{0, 2, 4, 6}, []float64{6, 4, 2, 0})
		if math.IsNaN(got) || got >= 1 {
			t.Errorf("kappa = %v, want defined value below 1", got)
		}
	})

	t.Run("half point scores bin separately", func(t *testing.T) {
		// 7.0 and 7.5 land in different bins, so this is two categories.
		got := WeightedKappa([]float64{7, 7.5}, []float64{7, 7.5})
		if !approx(got, 1) {
			t.Errorf("kappa = %v, want 1", got)
		}
	})
}

func TestPairwiseKappa(t *testing.T) {
	ratings := map[string]map[string]float64{
		"a1": {"r1": 2, "r2": 2},
		"a2": {"r1": 8, "r2": 8},
		"a3": {"r1": 5},
	}

	mean, pairs := PairwiseKappa(ratings, []string{"r1", "r2"})
	if pairs != 1 {
		t.Fatalf("pairs = %d, want 1", pairs)
	}
	if !approx(mean, 1) {
		t.Errorf("mean kappa = %v, want 1", mean)
	}

	// A pair with fewer than two shared answers contributes nothing.
	sparse := map[string]map[string]float64{
		"a1": {"r1": 2, "r2": 3},
	}
	mean, pairs = PairwiseKappa(sparse, []string{"r1", "r2"})
	if pairs != 0 || !math.IsNaN(mean) {
		t.Errorf("got (%v, %d), want (NaN, 0)", mean, pairs)
	}
}

func TestICC2k(t *testing.T) {
	t.Run("high agreement", func(t *testing.T) {
		scores := [][]float64{
			{2, 2.5},
			{5, 5},
			{8, 7.5},
		}
		got := ICC2k(scores)
		if math.IsNaN(got) || got < 0.9 {
			t.Errorf("ICC = %v, want near 1", got)
		}
	})

	t.Run("too few targets", func(t *testing.T) {
		if got := ICC2k([][]float64{{1, 2}}); !math.IsNaN(got) {
			t.Errorf("ICC = %v, want NaN", got)
		}
	})

	t.Run("too few raters", func(t *testing.T) {
		if got := ICC2k([][]float64{{1}, {2}}); !math.IsNaN(got) {
			t.Errorf("ICC = %v, want NaN", got)
		}
	})

	t.Run("missing cells imputed", func(t *testing.T) {
		scores := [][]float64{
			{2, 2},
			{5, math.NaN()},
			{8, 8},
		}
		got := ICC2k(scores)
		if math.IsNaN(got) {
			t.Error("ICC should be defined with partial data")
		}
	})

	t.Run("rater with no scores", func(t *testing.T) {
		scores := [][]float64{
			{2, math.NaN()},
			{5, math.NaN()},
		}
		if got := ICC2k(scores); !math.IsNaN(got) {
			t.Errorf("ICC = %v, want NaN", got)
		}
	})
}

func TestBiasLoA(t *testing.T) {
	t.Run("no diffs", func(t *testing.T) {
		bias, low, high := BiasLoA(nil)
		if !math.IsNaN(bias) || !math.IsNaN(low) || !math.IsNaN(high) {
			t.Errorf("got (%v, %v, %v), want all NaN", bias, low, high)
		}
	})

	t.Run("single diff collapses limits", func(t *testing.T) {
		bias, low, high := BiasLoA([]float64{0.5})
		if !approx(bias, 0.5) || !approx(low, 0.5) || !approx(high, 0.5) {
			t.Errorf("got (%v, %v, %v), want (0.5, 0.5, 0.5)", bias, low, high)
		}
	})

	t.Run("symmetric interval", func(t *testing.T) {
		bias, low, high := BiasLoA([]float64{1, -1, 1, -1})
		if !approx(bias, 0) {
			t.Errorf("bias = %v, want 0", bias)
		}
		if !approx(high-bias, bias-low) {
			t.Errorf("interval not symmetric: (%v, %v, %v)", bias, low, high)
		}
		if high <= bias {
			t.Error("upper limit should exceed bias with spread data")
		}
	})
}

func TestFiniteOrNil(t *testing.T) {
	if FiniteOrNil(math.NaN()) != nil {
		t.Error("NaN should map to nil")
	}
	if FiniteOrNil(math.Inf(1)) != nil {
		t.Error("Inf should map to nil")
	}
	if p := FiniteOrNil(1.25); p == nil || *p != 1.25 {
		t.Errorf("got %v, want 1.25", p)
	}
}

func TestScoreBin(t *testing.T) {
	tests := []struct {
		score float64
		want  int
	}{
		{0, 0},
		{7, 14},
		{7.5, 15},
		{10, 20},
		// Half-point ties round to the even bin.
		{6.25, 12},
		{7.25, 14},
		{7.75, 16},
		{8.25, 16},
	}
	for _, tt := range tests {
		if got := scoreBin(tt.score); got != tt.want {
			t.Errorf("scoreBin(%v) = %d, want %d", tt.score, got, tt.want)
		}
	}
}
