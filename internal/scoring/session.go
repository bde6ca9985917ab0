package scoring

import "github.com/smaragdas/softskills/internal/model"

// Canonical orderings used for deterministic tie-breaking.
var (
	dimensionOrder = []string{
		model.DimKnowledgeDecision,
		model.DimContentStructure,
		model.DimDeliveryPresence,
	}
	criterionOrder = []string{
		model.CritClarity,
		model.CritRelevance,
		model.CritStructure,
		model.CritExamples,
	}
)

// AggregateSession averages dimension and criterion scores across the
// results of one session. Keys without samples get a nil mean.
func AggregateSession(results []model.EvalResult) model.SessionAggregate {
	dimVals := make(map[string][]float64, len(dimensionOrder))
	critVals := make(map[string][]float64, len(criterionOrder))

	for _, r := range results {
		for _, dk := range dimensionOrder {
			if d, ok := r.Dimensions[dk]; ok {
				dimVals[dk] = append(dimVals[dk], d.Score)
			}
		}
		for _, c := range r.Criteria {
			for _, ck := range criterionOrder {
				if c.Name == ck {
					critVals[ck] = append(critVals[ck], c.Score)
					break
				}
			}
		}
	}

	aggr := model.SessionAggregate{
		Dimensions: make(map[string]*float64, len(dimensionOrder)),
		Criteria:   make(map[string]*float64, len(criterionOrder)),
	}
	for _, dk := range dimensionOrder {
		aggr.Dimensions[dk] = meanPtr(dimVals[dk])
	}
	for _, ck := range criterionOrder {
		aggr.Criteria[ck] = meanPtr(critVals[ck])
	}
	return aggr
}

func meanPtr(xs []float64) *float64 {
	if len(xs) == 0 {
		return nil
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	m := Round2(sum / float64(len(xs)))
	return &m
}

// PickWeakest selects the lowest systematic weak point of a session.
// Criteria take priority over dimensions when any criterion mean exists;
// ties break on the canonical ordering. With no data at all the default is
// the Content_Structure dimension at 0.
func PickWeakest(aggr model.SessionAggregate) model.WeakPoint {
	if name, val, ok := minInOrder(aggr.Criteria, criterionOrder); ok {
		return model.WeakPoint{Kind: "criterion", Name: name, Score: val}
	}
	if name, val, ok := minInOrder(aggr.Dimensions, dimensionOrder); ok {
		return model.WeakPoint{Kind: "dimension", Name: name, Score: val}
	}
	return model.WeakPoint{Kind: "dimension", Name: model.DimContentStructure, Score: 0}
}

func minInOrder(vals map[string]*float64, order []string) (string, float64, bool) {
	var (
		found    bool
		bestName string
		bestVal  float64
	)
	for _, name := range order {
		v := vals[name]
		if v == nil {
			continue
		}
		if !found || *v < bestVal {
			found = true
			bestName = name
			bestVal = *v
		}
	}
	return bestName, bestVal, found
}
