// Package evaluator orchestrates the scoring pipeline for a single answer:
// category normalization, signal extraction, LLM critique mapping, the
// baseline floor, dimension blending, modality fusion, and the repetition
// penalty, followed by persistence.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/smaragdas/softskills/internal/coach"
	"github.com/smaragdas/softskills/internal/model"
	"github.com/smaragdas/softskills/internal/scoring"
	"github.com/smaragdas/softskills/internal/store"
)

// Critic produces an LLM critique for an answer.
type Critic interface {
	CritiqueAnswer(ctx context.Context, category model.Category, qtype model.QType, question, answer string) (*model.Critique, error)
}

// Planner drafts a coaching plan for a session.
type Planner interface {
	DraftSessionPlan(ctx context.Context, aggr model.SessionAggregate, wp model.WeakPoint) (*model.Plan, error)
}

// Evaluator runs the scoring pipeline. Critic and Planner are optional;
// without them evaluation is purely signal-driven and plans are heuristic.
type Evaluator struct {
	store       *store.Store
	critic      Critic
	planner     Planner
	weights     scoring.WeightTable
	humanWeight float64
}

// New creates an Evaluator. humanWeight outside [0, 1] is clamped.
func New(s *store.Store, critic Critic, planner Planner, weights scoring.WeightTable, humanWeight float64) *Evaluator {
	return &Evaluator{
		store:       s,
		critic:      critic,
		planner:     planner,
		weights:     weights,
		humanWeight: scoring.Clip01(humanWeight),
	}
}

// Evaluate scores one answer and persists it together with its auto rating.
func (e *Evaluator) Evaluate(ctx context.Context, req model.EvalRequest) (*model.EvalResult, error) {
	if req.QType != model.QTypeOpen && req.QType != model.QTypeMC {
		return nil, fmt.Errorf("qtype %q: %w", req.QType, model.ErrUnknownQType)
	}

	category := scoring.NormalizeCategory(req.Category)
	hasMCQ := req.MCQ != nil
	hasText := req.Text != nil || strings.TrimSpace(req.AnswerText) != ""
	mcqScore := scoring.MCQScore(req.MCQ)

	var signals model.TextInput
	if req.Text != nil {
		signals = scoring.ClampSignals(*req.Text)
	}

	debug := map[string]any{
		"has_mcq":  hasMCQ,
		"has_text": hasText,
	}
	if hasMCQ {
		debug["mcq_accuracy_0_10"] = scoring.Round2(mcqScore)
	}

	// LLM critique replaces the mapped text signals when usable.
	var critique *model.Critique
	if e.critic != nil && strings.TrimSpace(req.AnswerText) != "" {
		crit, err := e.critic.CritiqueAnswer(ctx, category, req.QType, req.QuestionText, req.AnswerText)
		switch {
		case errors.Is(err, model.ErrUnusableCritique):
			slog.Warn("unusable critique, scoring without it",
				"user_id", req.UserID, "question_id", req.QuestionID)
			debug["llm_error"] = err.Error()
		case err != nil:
			slog.Warn("critique failed, scoring without it",
				"user_id", req.UserID, "question_id", req.QuestionID, "error", err)
			debug["llm_error"] = err.Error()
		default:
			critique = crit
			signals = applyCritique(signals, crit)
		}
	}
	debug["critique_used"] = critique != nil

	textScore := 0.0
	if hasText {
		textScore = scoring.TextComposite(signals)
		var baselineApplied bool
		textScore, baselineApplied = scoring.ApplyBaseline(textScore, req.AnswerText)
		debug["baseline_applied"] = baselineApplied
	}

	dims := scoring.Dimensions(mcqScore, hasMCQ, signals)

	w := e.weights.For(category)
	overall, mode, eff := scoring.Fuse(mcqScore, textScore, hasMCQ, hasText, w)
	debug["overall_mode"] = string(mode)
	debug["fusion_weights"] = map[string]float64{"mcq": eff.MCQ, "text": eff.Text}

	answerID := uuid.NewString()

	previous, err := e.store.ListPreviousAnswerTexts(req.UserID, category, answerID)
	if err != nil {
		return nil, fmt.Errorf("list previous answers: %w", err)
	}
	overall = scoring.ApplyRepetitionPenalty(overall, req.AnswerText, previous, debug)
	overall = scoring.Round2(overall)

	label := scoring.LabelFromScore(overall)
	coaching := coach.Advice(label, dims)

	result := &model.EvalResult{
		AnswerID:   answerID,
		Category:   category,
		QType:      req.QType,
		Overall:    overall,
		Label:      label,
		Dimensions: dims,
		Attributes: scoring.Attributes(mcqScore),
		Coaching:   &coaching,
		Debug:      debug,
	}
	if critique != nil {
		result.Criteria = critique.Criteria
		result.Feedback = critique.Summary
	}

	answer := model.Answer{
		ID:         answerID,
		UserID:     req.UserID,
		QuestionID: req.QuestionID,
		Category:   category,
		QType:      req.QType,
		Text:       req.AnswerText,
		Modalities: modalities(hasMCQ, hasText),
	}
	if err := e.store.InsertAnswer(answer, result); err != nil {
		return nil, fmt.Errorf("insert answer: %w", err)
	}
	if err := e.store.UpsertAutoRating(answerID, overall); err != nil {
		return nil, fmt.Errorf("insert auto rating: %w", err)
	}

	return result, nil
}

func applyCritique(signals model.TextInput, crit *model.Critique) model.TextInput {
	for _, c := range crit.Criteria {
		score := scoring.Clip010(c.Score)
		switch c.Name {
		case model.CritClarity:
			signals.Clarity = score
		case model.CritStructure:
			signals.Coherence = score
		case model.CritRelevance:
			signals.TopicRelevance = score
		case model.CritExamples:
			signals.VocabularyRange = score
		}
	}
	return signals
}

func modalities(hasMCQ, hasText bool) string {
	switch {
	case hasMCQ && hasText:
		return "mcq,text"
	case hasMCQ:
		return "mcq"
	case hasText:
		return "text"
	default:
		return ""
	}
}

// SessionPlan aggregates a user's results in a category/qtype slice and
// builds a coaching plan for the weakest area. An LLM-drafted plan is
// preferred; any failure falls back to the heuristic plan.
func (e *Evaluator) SessionPlan(ctx context.Context, userID string, category model.Category, qtype model.QType) (*model.Plan, model.SessionAggregate, error) {
	results, err := e.store.ListUserResults(userID, category, qtype)
	if err != nil {
		return nil, model.SessionAggregate{}, fmt.Errorf("list results: %w", err)
	}

	aggr := scoring.AggregateSession(results)
	wp := scoring.PickWeakest(aggr)

	if e.planner != nil {
		plan, err := e.planner.DraftSessionPlan(ctx, aggr, wp)
		if err == nil {
			return plan, aggr, nil
		}
		slog.Warn("plan drafting failed, using heuristic plan",
			"user_id", userID, "category", category, "error", err)
	}

	plan := coach.BuildPlan(wp)
	return &plan, aggr, nil
}

// RecomputeFinal reconciles the auto score with all human ratings for an
// answer and persists the result.
func (e *Evaluator) RecomputeFinal(answerID string) (*model.FinalScore, error) {
	answer, err := e.store.GetAnswer(answerID)
	if err != nil {
		return nil, fmt.Errorf("get answer: %w", err)
	}
	if answer == nil {
		return nil, fmt.Errorf("answer %s: %w", answerID, model.ErrNotFound)
	}

	var auto *float64
	rating, err := e.store.GetAutoRating(answerID)
	if err != nil {
		return nil, fmt.Errorf("get auto rating: %w", err)
	}
	if rating != nil {
		auto = &rating.Score
	}

	ratings, err := e.store.ListHumanRatings(answerID)
	if err != nil {
		return nil, fmt.Errorf("list human ratings: %w", err)
	}
	human := make([]float64, 0, len(ratings))
	for _, r := range ratings {
		human = append(human, r.Score)
	}

	rec := scoring.ReconcileFinal(auto, human, e.humanWeight)

	fs := model.FinalScore{
		AnswerID:      answer.ID,
		UserID:        answer.UserID,
		QuestionID:    answer.QuestionID,
		Category:      answer.Category,
		QType:         answer.QType,
		HumanAvg:      rec.HumanAvg,
		HumanWeighted: rec.HumanWeighted,
		Final:         rec.Final,
	}
	if auto != nil {
		fs.AutoScore = *auto
	}
	if err := e.store.UpsertFinalScore(fs); err != nil {
		return nil, fmt.Errorf("upsert final score: %w", err)
	}

	stored, err := e.store.GetFinalScore(answerID)
	if err != nil {
		return nil, fmt.Errorf("get final score: %w", err)
	}
	return stored, nil
}
