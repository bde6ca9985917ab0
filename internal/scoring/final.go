package scoring

// DefaultHumanWeight is the share of the final score taken from human
// raters when reconciling with the auto score.
const DefaultHumanWeight = 0.6

// Reconciled is the outcome of combining an auto score with human ratings.
type Reconciled struct {
	HumanAvg      *float64
	HumanWeighted float64
	Final         float64
}

// ReconcileFinal computes the weighted final score. Human scores are
// clamped to 0-10 before averaging and the weight is clamped to [0, 1].
// A missing side (nil auto score, no human ratings) contributes 0.
func ReconcileFinal(auto *float64, human []float64, humanWeight float64) Reconciled {
	w := Clip01(humanWeight)

	var r Reconciled
	if len(human) > 0 {
		sum := 0.0
		for _, h := range human {
			sum += Clip010(h)
		}
		avg := sum / float64(len(human))
		r.HumanAvg = &avg
	}

	a := 0.0
	if auto != nil {
		a = Clip010(*auto)
	}
	h := 0.0
	if r.HumanAvg != nil {
		h = *r.HumanAvg
	}

	r.HumanWeighted = w * h
	r.Final = (1-w)*a + r.HumanWeighted
	return r
}
