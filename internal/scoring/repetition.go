package scoring

import "strings"

const (
	// RepetitionThreshold is the similarity at which an answer counts as a
	// repeat of an earlier one.
	RepetitionThreshold = 0.90
	// RepetitionPenalty is the flat deduction applied to repeats.
	RepetitionPenalty = 1.0
)

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Similarity compares two texts after whitespace/case normalization.
// Identical texts score 1.0; containment scores the length ratio of the
// shorter to the longer; anything else scores 0.
func Similarity(a, b string) float64 {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		shorter, longer := len(na), len(nb)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return float64(shorter) / float64(longer)
	}
	return 0
}

// ApplyRepetitionPenalty deducts the flat penalty when the answer is too
// similar to any of the user's previous answers. Diagnostics are always
// written to debug, including when there are no previous answers.
func ApplyRepetitionPenalty(score float64, answer string, previous []string, debug map[string]any) float64 {
	maxSim := 0.0
	for _, prev := range previous {
		if sim := Similarity(answer, prev); sim > maxSim {
			maxSim = sim
		}
	}

	penalized := maxSim >= RepetitionThreshold
	if penalized {
		score -= RepetitionPenalty
		if score < 0 {
			score = 0
		}
	}

	if debug != nil {
		debug["repetition_max_similarity"] = Round3(maxSim)
		debug["repetition_threshold"] = RepetitionThreshold
		debug["repetition_penalty"] = RepetitionPenalty
		debug["repetition_penalized"] = penalized
	}
	return score
}
