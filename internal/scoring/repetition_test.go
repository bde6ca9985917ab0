package scoring

import "testing"

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "I would listen first", "I would listen first", 1},
		{"case and whitespace insensitive", "I  Would Listen\nFirst", "i would listen first", 1},
		{"containment", "i would listen", "i would listen and then do x", 0.5},
		{"containment symmetric", "i would listen and then do x", "i would listen", 0.5},
		{"unrelated", "delegate the task", "escalate to management", 0},
		{"empty side", "", "something", 0},
		{"both empty", "", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); !approx(got, tt.want) {
				t.Errorf("Similarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyRepetitionPenalty(t *testing.T) {
	t.Run("exact repeat penalized", func(t *testing.T) {
		debug := map[string]any{}
		got := ApplyRepetitionPenalty(7.5, "my answer", []string{"other", "My  Answer"}, debug)
		if !approx(got, 6.5) {
			t.Errorf("score = %v, want 6.5", got)
		}
		if debug["repetition_penalized"] != true {
			t.Error("expected repetition_penalized true")
		}
		if sim := debug["repetition_max_similarity"].(float64); !approx(sim, 1) {
			t.Errorf("max similarity = %v, want 1", sim)
		}
	})

	t.Run("floor at zero", func(t *testing.T) {
		got := ApplyRepetitionPenalty(0.4, "same", []string{"same"}, map[string]any{})
		if !approx(got, 0) {
			t.Errorf("score = %v, want 0", got)
		}
	})

	t.Run("below threshold untouched", func(t *testing.T) {
		debug := map[string]any{}
		got := ApplyRepetitionPenalty(7.5, "short", []string{"short but considerably longer text"}, debug)
		if !approx(got, 7.5) {
			t.Errorf("score = %v, want 7.5", got)
		}
		if debug["repetition_penalized"] != false {
			t.Error("expected repetition_penalized false")
		}
	})

	t.Run("diagnostics present without history", func(t *testing.T) {
		debug := map[string]any{}
		ApplyRepetitionPenalty(5, "anything", nil, debug)
		for _, key := range []string{
			"repetition_max_similarity",
			"repetition_threshold",
			"repetition_penalty",
			"repetition_penalized",
		} {
			if _, ok := debug[key]; !ok {
				t.Errorf("missing diagnostic %q", key)
			}
		}
		if sim := debug["repetition_max_similarity"].(float64); !approx(sim, 0) {
			t.Errorf("max similarity = %v, want 0", sim)
		}
	})
}
