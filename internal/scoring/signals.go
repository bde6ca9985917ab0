package scoring

import (
	"strings"

	"github.com/smaragdas/softskills/internal/model"
)

// BaselineScore is the floor applied to a zero text composite when the user
// actually wrote something.
const BaselineScore = 6.0

// MCQScore converts multiple-choice input to a 0-10 score. An accuracy
// fraction wins over the selected/correct comparison.
func MCQScore(in *model.MCQInput) float64 {
	if in == nil {
		return 0
	}
	if in.Accuracy != nil {
		return 10 * Clip01(*in.Accuracy)
	}
	if in.Selected != "" && in.Correct != "" {
		if in.Selected == in.Correct {
			return 10
		}
		return 0
	}
	return 0
}

// ClampSignals returns the text signals with each field clamped to 0-10.
func ClampSignals(in model.TextInput) model.TextInput {
	return model.TextInput{
		Clarity:         Clip010(in.Clarity),
		Coherence:       Clip010(in.Coherence),
		VocabularyRange: Clip010(in.VocabularyRange),
		TopicRelevance:  Clip010(in.TopicRelevance),
	}
}

// TextComposite is the mean of the four clamped text signals.
func TextComposite(in model.TextInput) float64 {
	c := ClampSignals(in)
	return (c.Clarity + c.Coherence + c.VocabularyRange + c.TopicRelevance) / 4
}

// ApplyBaseline lifts a zero text composite to the baseline floor when the
// raw answer text is non-blank. Returns the (possibly lifted) score and
// whether the floor fired.
func ApplyBaseline(textScore float64, answerText string) (float64, bool) {
	if textScore == 0 && strings.TrimSpace(answerText) != "" {
		return BaselineScore, true
	}
	return textScore, false
}

// Attributes derives the scored answer attributes. Decision_Quality is the
// clamped MCQ score, 0 when the modality is absent.
func Attributes(mcq float64) map[string]model.DimensionScore {
	dq := Clip010(mcq)
	return map[string]model.DimensionScore{
		model.AttrDecisionQuality: {Score: Round2(dq), Label: LabelFromScore(dq)},
	}
}

// Dimensions blends the MCQ score and text signals into the three scored
// dimensions. When the MCQ modality is absent its term contributes 0.
func Dimensions(mcq float64, hasMCQ bool, in model.TextInput) map[string]model.DimensionScore {
	sig := ClampSignals(in)
	m := 0.0
	if hasMCQ {
		m = Clip010(mcq)
	}

	kd := Clip010(0.80*m + 0.20*sig.TopicRelevance)
	cs := Clip010(0.45*sig.Clarity + 0.45*sig.Coherence + 0.10*sig.TopicRelevance)
	dp := Clip010(0.75*sig.VocabularyRange + 0.25*sig.Clarity)

	return map[string]model.DimensionScore{
		model.DimKnowledgeDecision: {Score: Round2(kd), Label: LabelFromScore(kd)},
		model.DimContentStructure:  {Score: Round2(cs), Label: LabelFromScore(cs)},
		model.DimDeliveryPresence:  {Score: Round2(dp), Label: LabelFromScore(dp)},
	}
}
