package coach

import (
	"strings"

	"github.com/smaragdas/softskills/internal/model"
)

// Advice derives the per-answer keep/change coaching from the overall label
// and the dimension bands. Deterministic, like BuildPlan.
func Advice(overall model.Label, dims map[string]model.DimensionScore) model.Coaching {
	var keep, change, actions, drills []string

	switch dims[model.DimKnowledgeDecision].Label {
	case model.LabelHigh:
		keep = append(keep, "Sound choices with clear decision criteria.")
	case model.LabelMid:
		change = append(change, "State your decision criteria before picking a solution.")
		actions = append(actions, "Write down why one option beats the others.")
	default:
		change = append(change, "Focus on framing criteria before you answer.")
		actions = append(actions, "Use a fixed rule: goal first, two or three criteria, then the choice.")
	}

	switch dims[model.DimContentStructure].Label {
	case model.LabelHigh:
		keep = append(keep, "Clear structure and a coherent flow.")
	case model.LabelMid:
		change = append(change, "Keep a fixed skeleton: context, options, decision.")
		drills = append(drills, "Write a four-sentence answer: context, options, decision, next step.")
	default:
		change = append(change, "Work on basic structure: one idea per sentence.")
		drills = append(drills, "Rewrite your answer in four short sentences, one idea each.")
	}

	switch dims[model.DimDeliveryPresence].Label {
	case model.LabelHigh:
		keep = append(keep, "Precise vocabulary without filler.")
	case model.LabelMid:
		change = append(change, "Use more concrete action words.")
	default:
		change = append(change, "Avoid vague phrasing; pick verbs that show action.")
	}

	var note string
	switch overall {
	case model.LabelHigh:
		note = "Steady performance. Keep improving with small focused steps."
	case model.LabelMid:
		note = "A good base. Tighter structure and vocabulary will lift the level."
	default:
		note = "Start with structure and decision criteria."
	}

	if len(change) > 2 {
		change = change[:2]
	}

	return model.Coaching{
		Keep:        joinOr(keep, "Solid elements worth keeping."),
		Change:      joinOr(change, "More clarity and structure."),
		Action:      firstOr(actions, "Apply a four-sentence skeleton."),
		Drill:       firstOr(drills, "Five-minute drill: write the answer in four sentences."),
		SummaryNote: note,
	}
}

func joinOr(parts []string, fallback string) string {
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, " • ")
}

func firstOr(parts []string, fallback string) string {
	if len(parts) == 0 {
		return fallback
	}
	return parts[0]
}
