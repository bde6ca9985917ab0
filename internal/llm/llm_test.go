package llm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/smaragdas/softskills/internal/model"
)

func TestNormalizeCritique(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		raw := rawCritique{
			Criteria: []rawCriterion{
				{Name: "clarity", Score: json.Number("8"), Comment: "Clear opener"},
				{Name: "Structure", Score: json.Number("6.5"), Comment: "Missing outcome"},
				{Name: "Relevance", Score: json.Number("12"), Comment: "On topic"},
				{Name: "Examples", Score: json.Number("-1"), Comment: ""},
			},
			Summary: " solid overall ",
		}

		crit := normalizeCritique(raw, "test-model")
		if len(crit.Criteria) != 4 {
			t.Fatalf("expected 4 criteria, got %d", len(crit.Criteria))
		}

		wantOrder := []string{"Clarity", "Structure", "Relevance", "Examples"}
		for i, name := range wantOrder {
			if crit.Criteria[i].Name != name {
				t.Errorf("criteria[%d] = %q, want %q", i, crit.Criteria[i].Name, name)
			}
		}
		if crit.Criteria[0].Score != 8 {
			t.Errorf("Clarity score = %v, want 8", crit.Criteria[0].Score)
		}
		if crit.Criteria[2].Score != 10 {
			t.Errorf("Relevance score should clamp to 10, got %v", crit.Criteria[2].Score)
		}
		if crit.Criteria[3].Score != 0 {
			t.Errorf("Examples score should clamp to 0, got %v", crit.Criteria[3].Score)
		}
		if crit.Criteria[3].Comment != placeholderComment {
			t.Errorf("empty comment should become placeholder, got %q", crit.Criteria[3].Comment)
		}
		if crit.Summary != "solid overall" {
			t.Errorf("summary = %q, want trimmed", crit.Summary)
		}
		if crit.ModelName != "test-model" {
			t.Errorf("model name = %q", crit.ModelName)
		}
	})

	t.Run("missing criteria synthesized", func(t *testing.T) {
		raw := rawCritique{
			Criteria: []rawCriterion{
				{Name: "Clarity", Score: json.Number("7"), Comment: "ok"},
			},
		}
		crit := normalizeCritique(raw, "m")
		if len(crit.Criteria) != 4 {
			t.Fatalf("expected 4 criteria, got %d", len(crit.Criteria))
		}
		if crit.Criteria[1].Score != 0 || crit.Criteria[1].Comment != placeholderComment {
			t.Errorf("synthesized Structure = %+v", crit.Criteria[1])
		}
	})

	t.Run("unparseable score treated as zero", func(t *testing.T) {
		raw := rawCritique{
			Criteria: []rawCriterion{
				{Name: "Clarity", Score: json.Number("high"), Comment: "vague"},
			},
		}
		crit := normalizeCritique(raw, "m")
		if crit.Criteria[0].Score != 0 {
			t.Errorf("score = %v, want 0", crit.Criteria[0].Score)
		}
	})
}

func TestCritiqueUnusable(t *testing.T) {
	t.Run("all zero and placeholders", func(t *testing.T) {
		crit := normalizeCritique(rawCritique{}, "m")
		if !critiqueUnusable(crit) {
			t.Error("empty payload should be unusable")
		}
	})

	t.Run("any score makes it usable", func(t *testing.T) {
		crit := normalizeCritique(rawCritique{
			Criteria: []rawCriterion{{Name: "Examples", Score: json.Number("3"), Comment: ""}},
		}, "m")
		if critiqueUnusable(crit) {
			t.Error("non-zero score should be usable")
		}
	})

	t.Run("any real comment makes it usable", func(t *testing.T) {
		crit := normalizeCritique(rawCritique{
			Criteria: []rawCriterion{{Name: "Clarity", Score: json.Number("0"), Comment: "no examples at all"}},
		}, "m")
		if critiqueUnusable(crit) {
			t.Error("real comment should be usable")
		}
	})
}

func TestBuildCritiquePrompts(t *testing.T) {
	open := buildOpenCritiquePrompt(model.CategoryLeadership, "Describe a hard call you made.")
	for _, want := range []string{"leadership", "Describe a hard call you made.", "Clarity", "Structure", "Relevance", "Examples", "JSON"} {
		if !strings.Contains(open, want) {
			t.Errorf("open prompt missing %q", want)
		}
	}

	mc := buildMCCritiquePrompt(model.CategoryTeamwork, "Pick the best response to a blocked teammate.")
	if !strings.Contains(mc, "multiple-choice") {
		t.Error("mc prompt should mention multiple-choice")
	}
	if !strings.Contains(mc, "Pick the best response to a blocked teammate.") {
		t.Error("mc prompt should contain the question")
	}
}

func TestBuildPlanPrompt(t *testing.T) {
	prompt := buildPlanPrompt(model.WeakPoint{Kind: "criterion", Name: "Examples", Score: 3.4})
	if !strings.Contains(prompt, "Examples") || !strings.Contains(prompt, "3.40") {
		t.Errorf("plan prompt should name the weak point: %q", prompt)
	}
	if !strings.Contains(prompt, "exactly 3") {
		t.Error("plan prompt should demand 3 steps")
	}
}

func TestFormatAggregate(t *testing.T) {
	v1, v2 := 6.25, 4.5
	aggr := model.SessionAggregate{
		Dimensions: map[string]*float64{
			model.DimContentStructure:  &v1,
			model.DimKnowledgeDecision: nil,
		},
		Criteria: map[string]*float64{
			model.CritClarity: &v2,
		},
	}

	got := formatAggregate(aggr)
	if !strings.Contains(got, "dimension Content_Structure: 6.25") {
		t.Errorf("missing dimension line: %q", got)
	}
	if !strings.Contains(got, "criterion Clarity: 4.50") {
		t.Errorf("missing criterion line: %q", got)
	}
	if strings.Contains(got, "Knowledge_Decision") {
		t.Error("nil means should be skipped")
	}

	if got := formatAggregate(model.SessionAggregate{}); got != "No session averages available." {
		t.Errorf("empty aggregate = %q", got)
	}
}
