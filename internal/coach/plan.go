// Package coach builds deterministic coaching plans from session weak
// points. Plans are a fallback for when no LLM-drafted plan is available,
// so they must work without any external dependency.
package coach

import (
	"fmt"

	"github.com/smaragdas/softskills/internal/model"
	"github.com/smaragdas/softskills/internal/scoring"
)

type planContent struct {
	steps     []string
	practice  string
	resources []model.Resource
}

var criterionPlans = map[string]planContent{
	model.CritClarity: {
		steps: []string{
			"Rewrite one of your answers in two sentences: context, then decision.",
			"Remove two filler words (adverbs, hedges) from each sentence.",
			"Close with one measurable outcome (a number or 'within X days').",
		},
		practice: "Micro-drill: take one answer and cut it to tweet length (280 characters) without losing the point.",
		resources: []model.Resource{
			{Title: "Plain language quick guide", URL: "https://www.plainlanguage.gov/guidelines/"},
		},
	},
	model.CritStructure: {
		steps: []string{
			"Use the frame: situation, options, decision, outcome.",
			"Break the two or three key points into headings or bullets.",
			"Close with one post-mortem lesson (what you keep).",
		},
		practice: "Micro-drill: split one answer into 3 bullets of 7-9 words each.",
		resources: []model.Resource{
			{Title: "Pyramid Principle (overview)", URL: "https://www.strategyu.co/pyramid-principle/"},
		},
	},
	model.CritRelevance: {
		steps: []string{
			"Underline the key words of the question.",
			"Answer them explicitly in your first sentence.",
			"Add one example strictly tied to what was asked.",
		},
		practice: "Micro-drill: write a sentence starting with 'You asked X, the answer is Y because...'.",
		resources: []model.Resource{
			{Title: "Answering to the prompt", URL: "https://writingcenter.unc.edu/tips-and-tools/understanding-assignments/"},
		},
	},
	model.CritExamples: {
		steps: []string{
			"Give one concrete incident (who, when, where).",
			"Say what you did and what came of it (a number or a timeline).",
			"Tie it back to the skill so the relevance is explicit.",
		},
		practice: "Micro-drill: write a three-sentence mini case about a mistake and what you learned.",
		resources: []model.Resource{
			{Title: "STAR method", URL: "https://www.themuse.com/advice/star-interview-method"},
		},
	},
}

var genericCriterionPlan = planContent{
	steps: []string{
		"Pick one answer that feels weak to you.",
		"Apply the frame: context, decision, outcome.",
		"Add one number or metric and one micro-lesson.",
	},
	practice: "Micro-drill: shorten the answer by 10% without losing information.",
}

var dimensionPlans = map[string]planContent{
	model.DimContentStructure: {
		steps: []string{
			"Write the skeleton first: three bullets before any prose.",
			"Turn each bullet into one sentence with an action verb.",
			"Close with one 'so what' (what changes or what you learned).",
		},
		practice: "Micro-drill: turn one answer into 3 bullets plus a one-sentence summary.",
	},
	model.DimKnowledgeDecision: {
		steps: []string{
			"State the decision criterion explicitly (cost, risk, or speed).",
			"Compare two alternatives in one sentence each.",
			"Close with a measurable check (an A/B or a small experiment).",
		},
		practice: "Micro-drill: write one sentence: 'I chose X because the criterion was Y, avoiding Z.'",
	},
	model.DimDeliveryPresence: {
		steps: []string{
			"Keep sentences to 18 words or fewer.",
			"Replace two vague adjectives with concrete terms.",
			"Use active voice in at least two places.",
		},
		practice: "Micro-drill: replace 'better' or 'properly' with one measurable term.",
	},
}

// BuildPlan produces the three-step plan for a weak point. The same weak
// point always yields the same plan.
func BuildPlan(wp model.WeakPoint) model.Plan {
	var content planContent
	if wp.Kind == "criterion" {
		var ok bool
		if content, ok = criterionPlans[wp.Name]; !ok {
			content = genericCriterionPlan
		}
	} else {
		var ok bool
		if content, ok = dimensionPlans[wp.Name]; !ok {
			content = dimensionPlans[model.DimContentStructure]
		}
	}

	steps := content.steps
	if len(steps) > 3 {
		steps = steps[:3]
	}

	return model.Plan{
		Overview: fmt.Sprintf("The weakest point of this session was '%s' (%.2f/10).", wp.Name, wp.Score),
		WeakestArea: model.WeakPoint{
			Kind:  wp.Kind,
			Name:  wp.Name,
			Score: scoring.Round2(wp.Score),
		},
		Steps:     steps,
		Practice:  content.practice,
		Resources: content.resources,
	}
}
