package scoring

import (
	"math"

	"github.com/smaragdas/softskills/internal/model"
)

// Clip01 clamps x to [0, 1].
func Clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Clip010 clamps x to the 0-10 scoring scale.
func Clip010(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 10 {
		return 10
	}
	return x
}

// LabelFromScore maps a 0-10 score to its qualitative band.
func LabelFromScore(s float64) model.Label {
	switch {
	case s < 4.5:
		return model.LabelLow
	case s >= 7.5:
		return model.LabelHigh
	default:
		return model.LabelMid
	}
}

// Round2 rounds to 2 decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Round3 rounds to 3 decimal places.
func Round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
