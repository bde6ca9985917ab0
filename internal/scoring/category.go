package scoring

import (
	"strings"

	"github.com/smaragdas/softskills/internal/model"
)

var categoryAliases = map[string]model.Category{
	"communication":        model.CategoryCommunication,
	"comm":                 model.CategoryCommunication,
	"communication_skills": model.CategoryCommunication,
	"leadership":           model.CategoryLeadership,
	"lead":                 model.CategoryLeadership,
	"leader":               model.CategoryLeadership,
	"teamwork":             model.CategoryTeamwork,
	"team":                 model.CategoryTeamwork,
	"collaboration":        model.CategoryTeamwork,
	"problem_solving":      model.CategoryProblemSolving,
	"problem":              model.CategoryProblemSolving,
	"problem solving":      model.CategoryProblemSolving,
	"problemsolving":       model.CategoryProblemSolving,
	"decision_making":      model.CategoryProblemSolving,
}

// NormalizeCategory maps free-form category input to a canonical skill.
// Unrecognized input falls back to communication.
func NormalizeCategory(raw string) model.Category {
	key := strings.ToLower(strings.TrimSpace(raw))
	if c, ok := categoryAliases[key]; ok {
		return c
	}
	return model.CategoryCommunication
}
