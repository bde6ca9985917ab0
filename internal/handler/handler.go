// Package handler exposes the scoring engine over a JSON HTTP API.
package handler

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/smaragdas/softskills/internal/evaluator"
	appI18n "github.com/smaragdas/softskills/internal/i18n"
	"github.com/smaragdas/softskills/internal/model"
	"github.com/smaragdas/softskills/internal/scoring"
	"github.com/smaragdas/softskills/internal/store"
)

// Config carries handler settings.
type Config struct {
	// APIKey gates the scoring endpoints when non-empty.
	APIKey        string
	SecureCookies bool
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store  *store.Store
	eval   *evaluator.Evaluator
	config Config
}

// New creates a new Handler.
func New(s *store.Store, e *evaluator.Evaluator, cfg Config) *Handler {
	return &Handler{store: s, eval: e, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealthz)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAPIKey)
		r.Post("/evaluate", h.handleEvaluate)
		r.Get("/session/{userID}/plan", h.handleSessionPlan)
		r.Get("/metrics/reliability", h.handleReliability)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Use(requireRole(model.UserRoleRater, model.UserRoleAdmin))
		r.Get("/rater/items", h.handleRaterItems)
		r.Post("/rater/ratings", h.handleRaterRating)
		r.Get("/report/agreement.csv", h.handleAgreementCSV)
	})
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requireAPIKey checks the X-API-Key header. A blank configured key disables
// the gate.
func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.config.APIKey != "" {
			got := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(h.config.APIKey)) != 1 {
				respondError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req model.EvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.QuestionID == "" {
		respondError(w, http.StatusBadRequest, "user_id and question_id are required")
		return
	}
	if req.MCQ == nil && req.Text == nil && strings.TrimSpace(req.AnswerText) == "" {
		respondError(w, http.StatusBadRequest, model.ErrEmptyAnswer.Error())
		return
	}

	result, err := h.eval.Evaluate(r.Context(), req)
	if err != nil {
		if errors.Is(err, model.ErrUnknownQType) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("evaluate failed", "user_id", req.UserID, "question_id", req.QuestionID, "error", err)
		respondError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}

	if result.Feedback == "" {
		result.Feedback = appI18n.Td(r.Context(), "ScoreSummary", map[string]any{"Score": result.Overall}) +
			" " + appI18n.T(r.Context(), "Feedback"+string(result.Label))
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSessionPlan(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	category := scoring.NormalizeCategory(r.URL.Query().Get("category"))
	qtype, ok := parseQType(r.URL.Query().Get("qtype"))
	if !ok {
		respondError(w, http.StatusBadRequest, model.ErrUnknownQType.Error())
		return
	}

	plan, aggr, err := h.eval.SessionPlan(r.Context(), userID, category, qtype)
	if err != nil {
		slog.Error("session plan failed", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "plan generation failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":   userID,
		"category":  category,
		"qtype":     qtype,
		"aggregate": aggr,
		"plan":      plan,
	})
}

// parseQType maps the query parameter to a QType; empty means open.
func parseQType(s string) (model.QType, bool) {
	switch model.QType(s) {
	case model.QTypeOpen, "":
		return model.QTypeOpen, true
	case model.QTypeMC:
		return model.QTypeMC, true
	default:
		return "", false
	}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
