package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/smaragdas/softskills/internal/model"
)

func buildOpenCritiquePrompt(category model.Category, question string) string {
	var sb strings.Builder
	sb.WriteString("You are a soft-skills assessor. A learner answered the following ")
	sb.WriteString(string(category))
	sb.WriteString(" question in free text:\n\n")
	sb.WriteString("QUESTION: " + question + "\n\n")
	sb.WriteString("Assess the answer on four criteria, each scored 0 to 10:\n")
	sb.WriteString("- Clarity: is the answer easy to follow?\n")
	sb.WriteString("- Structure: does it have a recognizable shape (context, decision, outcome)?\n")
	sb.WriteString("- Relevance: does it address what was actually asked?\n")
	sb.WriteString("- Examples: does it ground claims in concrete incidents?\n\n")
	sb.WriteString("Give a one-line comment per criterion. Be specific, not generic.\n\n")
	sb.WriteString("Respond ONLY with a JSON object:\n")
	sb.WriteString(`{"criteria": [{"name": "Clarity", "score": <0-10>, "comment": "<one line>"}, `)
	sb.WriteString(`{"name": "Structure", ...}, {"name": "Relevance", ...}, {"name": "Examples", ...}], `)
	sb.WriteString(`"summary": "<two sentences at most>"}`)
	sb.WriteString("\n")
	return sb.String()
}

func buildMCCritiquePrompt(category model.Category, question string) string {
	var sb strings.Builder
	sb.WriteString("You are a soft-skills assessor. A learner answered the following ")
	sb.WriteString(string(category))
	sb.WriteString(" multiple-choice question and explained their pick:\n\n")
	sb.WriteString("QUESTION: " + question + "\n\n")
	sb.WriteString("Judge how well the explanation fits the underlying principles of the skill. ")
	sb.WriteString("Score the same four criteria 0 to 10 (Clarity, Structure, Relevance, Examples), ")
	sb.WriteString("where Relevance measures whether the reasoning fits the chosen option.\n\n")
	sb.WriteString("Respond ONLY with a JSON object:\n")
	sb.WriteString(`{"criteria": [{"name": "Clarity", "score": <0-10>, "comment": "<one line>"}, `)
	sb.WriteString(`{"name": "Structure", ...}, {"name": "Relevance", ...}, {"name": "Examples", ...}], `)
	sb.WriteString(`"summary": "<two sentences at most>"}`)
	sb.WriteString("\n")
	return sb.String()
}

func buildPlanPrompt(wp model.WeakPoint) string {
	var sb strings.Builder
	sb.WriteString("You are a soft-skills coach. A learner just finished a practice session. ")
	sb.WriteString(fmt.Sprintf("Their weakest area was the %s '%s' at %.2f/10.\n\n", wp.Kind, wp.Name, wp.Score))
	sb.WriteString("The user message contains the session averages. Draft a short coaching plan:\n")
	sb.WriteString("- exactly 3 concrete, doable steps\n")
	sb.WriteString("- one micro-drill the learner can do in under five minutes\n")
	sb.WriteString("- optionally up to 2 resource links\n\n")
	sb.WriteString("Respond ONLY with a JSON object:\n")
	sb.WriteString(`{"overview": "<one sentence naming the weak area>", "steps": ["...", "...", "..."], `)
	sb.WriteString(`"practice": "<micro-drill>", "resources": [{"title": "...", "url": "..."}]}`)
	sb.WriteString("\n")
	return sb.String()
}

// formatAggregate renders session averages as stable, readable lines for
// the plan prompt. Keys without samples are skipped.
func formatAggregate(aggr model.SessionAggregate) string {
	var lines []string
	for name, v := range aggr.Dimensions {
		if v != nil {
			lines = append(lines, fmt.Sprintf("dimension %s: %.2f", name, *v))
		}
	}
	for name, v := range aggr.Criteria {
		if v != nil {
			lines = append(lines, fmt.Sprintf("criterion %s: %.2f", name, *v))
		}
	}
	sort.Strings(lines)
	if len(lines) == 0 {
		return "No session averages available."
	}
	return strings.Join(lines, "\n")
}
