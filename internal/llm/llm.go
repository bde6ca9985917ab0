package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/smaragdas/softskills/internal/model"
	"github.com/smaragdas/softskills/internal/scoring"
)

// placeholderComment marks a criterion the model did not actually assess.
const placeholderComment = "—"

// critiqueOrder is the fixed criterion set every normalized critique carries.
var critiqueOrder = []string{
	model.CritClarity,
	model.CritStructure,
	model.CritRelevance,
	model.CritExamples,
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// ModelName reports the configured model identifier.
func (c *Client) ModelName() string {
	return c.model
}

// Ping verifies the endpoint is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

type rawCriterion struct {
	Name    string      `json:"name"`
	Score   json.Number `json:"score"`
	Comment string      `json:"comment"`
}

type rawCritique struct {
	Criteria []rawCriterion `json:"criteria"`
	Summary  string         `json:"summary"`
}

// CritiqueAnswer asks the model to assess one answer against the fixed
// criteria set. The returned critique always carries all four criteria in
// canonical order.
func (c *Client) CritiqueAnswer(ctx context.Context, category model.Category, qtype model.QType, question, answer string) (*model.Critique, error) {
	var systemPrompt string
	switch qtype {
	case model.QTypeOpen:
		systemPrompt = buildOpenCritiquePrompt(category, question)
	case model.QTypeMC:
		systemPrompt = buildMCCritiquePrompt(category, question)
	default:
		return nil, model.ErrUnknownQType
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: answer},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("critique response", "raw", raw)

	var payload rawCritique
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parse critique response: %w (raw: %s)", err, raw)
	}

	crit := normalizeCritique(payload, c.model)
	if critiqueUnusable(crit) {
		return nil, model.ErrUnusableCritique
	}
	return crit, nil
}

// normalizeCritique maps a raw payload onto the fixed criteria set. Missing
// criteria get a zero score and a placeholder comment; scores are clamped
// to the 0-10 scale.
func normalizeCritique(raw rawCritique, modelName string) *model.Critique {
	byName := make(map[string]rawCriterion, len(raw.Criteria))
	for _, rc := range raw.Criteria {
		byName[strings.ToLower(strings.TrimSpace(rc.Name))] = rc
	}

	crit := &model.Critique{
		Summary:   strings.TrimSpace(raw.Summary),
		ModelName: modelName,
	}
	for _, name := range critiqueOrder {
		rc, ok := byName[strings.ToLower(name)]
		score := 0.0
		comment := placeholderComment
		if ok {
			if v, err := rc.Score.Float64(); err == nil {
				score = scoring.Clip010(v)
			}
			if trimmed := strings.TrimSpace(rc.Comment); trimmed != "" {
				comment = trimmed
			}
		}
		crit.Criteria = append(crit.Criteria, model.Criterion{
			Name:    name,
			Score:   score,
			Comment: comment,
		})
	}
	return crit
}

// critiqueUnusable reports whether a payload carries no information at all:
// every score zero and every comment a placeholder.
func critiqueUnusable(crit *model.Critique) bool {
	for _, c := range crit.Criteria {
		if c.Score != 0 {
			return false
		}
		if c.Comment != placeholderComment && c.Comment != "" {
			return false
		}
	}
	return true
}

type rawPlan struct {
	Overview  string           `json:"overview"`
	Steps     []string         `json:"steps"`
	Practice  string           `json:"practice"`
	Resources []model.Resource `json:"resources"`
}

// DraftSessionPlan asks the model for a coaching plan targeting the weak
// point. Callers fall back to the heuristic plan on any error.
func (c *Client) DraftSessionPlan(ctx context.Context, aggr model.SessionAggregate, wp model.WeakPoint) (*model.Plan, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildPlanPrompt(wp)},
			{Role: openai.ChatMessageRoleUser, Content: formatAggregate(aggr)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.4,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM plan call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("LLM returned no choices for plan")
	}

	raw := resp.Choices[0].Message.Content
	var payload rawPlan
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("parse plan response: %w (raw: %s)", err, raw)
	}
	if len(payload.Steps) == 0 || strings.TrimSpace(payload.Overview) == "" {
		return nil, fmt.Errorf("plan response incomplete (raw: %s)", raw)
	}
	if len(payload.Steps) > 3 {
		payload.Steps = payload.Steps[:3]
	}

	return &model.Plan{
		Overview: strings.TrimSpace(payload.Overview),
		WeakestArea: model.WeakPoint{
			Kind:  wp.Kind,
			Name:  wp.Name,
			Score: scoring.Round2(wp.Score),
		},
		Steps:     payload.Steps,
		Practice:  strings.TrimSpace(payload.Practice),
		Resources: payload.Resources,
	}, nil
}
