package scoring

import "github.com/smaragdas/softskills/internal/model"

// FuseMode tells which fusion branch produced the overall score.
type FuseMode string

const (
	FuseModeFused    FuseMode = "fused"
	FuseModeTextOnly FuseMode = "text_only"
	FuseModeMCQOnly  FuseMode = "mcq_only"
	FuseModeEmpty    FuseMode = "empty"
)

// Weights are per-category modality weights. They need not sum to 1;
// fusion renormalizes.
type Weights struct {
	MCQ  float64 `json:"mcq" mapstructure:"mcq"`
	Text float64 `json:"text" mapstructure:"text"`
}

// DefaultWeights is used for categories without an override.
var DefaultWeights = Weights{MCQ: 0.40, Text: 0.60}

// WeightTable holds per-category weight overrides.
type WeightTable map[model.Category]Weights

// For returns the weights for a category, falling back to the defaults.
func (t WeightTable) For(cat model.Category) Weights {
	if t != nil {
		if w, ok := t[cat]; ok {
			return w
		}
	}
	return DefaultWeights
}

// Fuse blends the MCQ and text scores according to which modalities are
// present. A single present modality passes through unchanged; when both
// are present the weights are renormalized before blending. The returned
// weights are the effective (renormalized) pair.
func Fuse(mcq, text float64, hasMCQ, hasText bool, w Weights) (float64, FuseMode, Weights) {
	switch {
	case hasMCQ && hasText:
		s := w.MCQ + w.Text
		if s < 1e-9 {
			s = 1e-9
		}
		wm, wt := w.MCQ/s, w.Text/s
		score := Clip010(wm*Clip010(mcq) + wt*Clip010(text))
		return score, FuseModeFused, Weights{MCQ: wm, Text: wt}
	case hasText:
		return Clip010(text), FuseModeTextOnly, Weights{MCQ: 0, Text: 1}
	case hasMCQ:
		return Clip010(mcq), FuseModeMCQOnly, Weights{MCQ: 1, Text: 0}
	default:
		return 0, FuseModeEmpty, Weights{}
	}
}
