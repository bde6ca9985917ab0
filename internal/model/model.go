package model

import (
	"context"
	"errors"
	"time"
)

// Category is a canonical soft-skill category.
type Category string

const (
	CategoryCommunication  Category = "communication"
	CategoryLeadership     Category = "leadership"
	CategoryTeamwork       Category = "teamwork"
	CategoryProblemSolving Category = "problem_solving"
)

// QType distinguishes open text questions from multiple choice.
type QType string

const (
	QTypeOpen QType = "open"
	QTypeMC   QType = "mc"
)

// Label is the qualitative band for a 0-10 score.
type Label string

const (
	LabelLow  Label = "Low"
	LabelMid  Label = "Mid"
	LabelHigh Label = "High"
)

// Dimension names produced by the scoring pass.
const (
	DimKnowledgeDecision = "Knowledge_Decision"
	DimContentStructure  = "Content_Structure"
	DimDeliveryPresence  = "Delivery_Presence"
)

// Attribute names derived from the answer inputs.
const (
	AttrDecisionQuality = "Decision_Quality"
)

// Criterion names produced by the critique pass.
const (
	CritClarity   = "Clarity"
	CritStructure = "Structure"
	CritRelevance = "Relevance"
	CritExamples  = "Examples"
)

// Sentinel errors shared across packages.
var (
	ErrUnknownQType     = errors.New("unknown question type")
	ErrEmptyAnswer      = errors.New("answer is empty")
	ErrNotFound         = errors.New("not found")
	ErrUnusableCritique = errors.New("unusable critique payload")
)

// MCQInput carries the multiple-choice side of an answer. Accuracy, when
// present, takes precedence over the selected/correct comparison.
type MCQInput struct {
	Accuracy *float64 `json:"accuracy,omitempty"`
	Selected string   `json:"selected,omitempty"`
	Correct  string   `json:"correct,omitempty"`
}

// TextInput carries the four pre-extracted text signals, each on 0-10.
type TextInput struct {
	Clarity         float64 `json:"clarity"`
	Coherence       float64 `json:"coherence"`
	VocabularyRange float64 `json:"vocabulary_range"`
	TopicRelevance  float64 `json:"topic_relevance"`
}

// EvalRequest is one answer to evaluate. Modality presence is signaled by
// the MCQ and Text pointers; AnswerText is the raw user text and may be
// non-empty even when Text signals were not extracted upstream.
type EvalRequest struct {
	UserID       string     `json:"user_id"`
	QuestionID   string     `json:"question_id"`
	QuestionText string     `json:"question_text,omitempty"`
	Category     string     `json:"category"`
	QType        QType      `json:"qtype"`
	AnswerText   string     `json:"answer_text"`
	MCQ          *MCQInput  `json:"mcq,omitempty"`
	Text         *TextInput `json:"text,omitempty"`
}

// Criterion is one scored critique criterion.
type Criterion struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Comment string  `json:"comment"`
}

// Critique is the normalized LLM assessment of an answer.
type Critique struct {
	Criteria  []Criterion `json:"criteria"`
	Summary   string      `json:"summary,omitempty"`
	ModelName string      `json:"model_name,omitempty"`
}

// DimensionScore is a blended dimension value with its label.
type DimensionScore struct {
	Score float64 `json:"score"`
	Label Label   `json:"label"`
}

// Coaching is the per-answer advice derived from the dimension bands.
type Coaching struct {
	Keep        string `json:"keep"`
	Change      string `json:"change"`
	Action      string `json:"action"`
	Drill       string `json:"drill"`
	SummaryNote string `json:"summary_note"`
}

// EvalResult is the outcome of evaluating one answer.
type EvalResult struct {
	AnswerID   string                    `json:"answer_id"`
	Category   Category                  `json:"category"`
	QType      QType                     `json:"qtype"`
	Overall    float64                   `json:"overall"`
	Label      Label                     `json:"label"`
	Dimensions map[string]DimensionScore `json:"dimensions"`
	Attributes map[string]DimensionScore `json:"attributes"`
	Criteria   []Criterion               `json:"criteria,omitempty"`
	Coaching   *Coaching                 `json:"coaching,omitempty"`
	Feedback   string                    `json:"feedback,omitempty"`
	Debug      map[string]any            `json:"debug"`
}

// SessionAggregate holds per-dimension and per-criterion means over a
// session. A nil value means no samples were available for that key.
type SessionAggregate struct {
	Dimensions map[string]*float64 `json:"dimensions"`
	Criteria   map[string]*float64 `json:"criteria"`
}

// WeakPoint identifies the weakest area of a session.
type WeakPoint struct {
	Kind  string  `json:"type"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Resource is a link offered alongside a coaching plan.
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Plan is a three-step coaching plan targeting a weak point.
type Plan struct {
	Overview    string     `json:"overview"`
	WeakestArea WeakPoint  `json:"weakest_area"`
	Steps       []string   `json:"steps"`
	Practice    string     `json:"practice"`
	Resources   []Resource `json:"resources"`
}

// Answer is a persisted user answer.
type Answer struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	QuestionID string    `json:"question_id"`
	Category   Category  `json:"category"`
	QType      QType     `json:"qtype"`
	Text       string    `json:"text"`
	Modalities string    `json:"modalities"`
	CreatedAt  time.Time `json:"created_at"`
}

// AutoRating is the machine score for an answer.
type AutoRating struct {
	AnswerID  string    `json:"answer_id"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// HumanRating is one rater's score for an answer.
type HumanRating struct {
	ID        int64     `json:"id"`
	AnswerID  string    `json:"answer_id"`
	RaterID   string    `json:"rater_id"`
	Score     float64   `json:"score"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FinalScore is the reconciled auto/human score for an answer.
type FinalScore struct {
	AnswerID      string    `json:"answer_id"`
	UserID        string    `json:"user_id"`
	QuestionID    string    `json:"question_id"`
	Category      Category  `json:"category"`
	QType         QType     `json:"qtype"`
	AutoScore     float64   `json:"auto_score"`
	HumanAvg      *float64  `json:"human_avg,omitempty"`
	HumanWeighted float64   `json:"human_weighted"`
	Final         float64   `json:"final_score"`
	CompletedAt   time.Time `json:"completed_at"`
}

// ReliabilityReport is the agreement summary for a category/qtype slice.
type ReliabilityReport struct {
	Filters           ReportFilters `json:"filters"`
	InteractionsTotal int           `json:"n_interactions_total"`
	InteractionsUsed  int           `json:"n_interactions_used"`
	UniqueRaters      int           `json:"n_unique_raters"`
	Kappa             KappaReport   `json:"kappa"`
	ICC               ICCReport     `json:"icc"`
	AutoVsHuman       BiasReport    `json:"auto_vs_human"`
}

// ReportFilters echoes the query that produced a report.
type ReportFilters struct {
	Category Category `json:"category"`
	QType    QType    `json:"qtype"`
}

// KappaReport summarizes pairwise weighted kappa. Mean is nil when no rater
// pair had enough paired scores.
type KappaReport struct {
	Mean    *float64 `json:"mean"`
	Weights string   `json:"weights"`
	Pairs   int      `json:"pairs"`
}

// ICCReport carries the average-measures intraclass correlation.
type ICCReport struct {
	ICC2k *float64 `json:"ICC2k"`
}

// BiasReport is the Bland-Altman style auto-vs-human comparison.
type BiasReport struct {
	Bias    *float64 `json:"bias"`
	LoALow  *float64 `json:"loa_low"`
	LoAHigh *float64 `json:"loa_high"`
}

// UserRole represents a user's access level.
type UserRole string

const (
	UserRoleRater UserRole = "rater"
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user (raters and admins).
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}
