package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/smaragdas/softskills/internal/model"
	"github.com/smaragdas/softskills/internal/scoring"
)

type ratingRequest struct {
	AnswerID string  `json:"answer_id"`
	Score    float64 `json:"score"`
	Comment  string  `json:"comment,omitempty"`
}

// handleRaterItems lists answers the authenticated rater has not rated yet.
func (h *Handler) handleRaterItems(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	category := scoring.NormalizeCategory(r.URL.Query().Get("category"))
	qtype, ok := parseQType(r.URL.Query().Get("qtype"))
	if !ok {
		respondError(w, http.StatusBadRequest, model.ErrUnknownQType.Error())
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	answers, err := h.store.ListUnratedAnswers(user.Username, category, qtype, limit)
	if err != nil {
		slog.Error("list unrated answers", "rater", user.Username, "error", err)
		respondError(w, http.StatusInternalServerError, "listing failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"qtype":    qtype,
		"items":    answers,
	})
}

// handleRaterRating records a human rating and recomputes the reconciled
// final score for the answer.
func (h *Handler) handleRaterRating(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())

	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AnswerID == "" {
		respondError(w, http.StatusBadRequest, "answer_id is required")
		return
	}
	if req.Score < 0 || req.Score > 10 {
		respondError(w, http.StatusBadRequest, "score must be between 0 and 10")
		return
	}

	answer, err := h.store.GetAnswer(req.AnswerID)
	if err != nil {
		slog.Error("get answer", "answer_id", req.AnswerID, "error", err)
		respondError(w, http.StatusInternalServerError, "rating failed")
		return
	}
	if answer == nil {
		respondError(w, http.StatusNotFound, "answer not found")
		return
	}

	if err := h.store.UpsertHumanRating(model.HumanRating{
		AnswerID: req.AnswerID,
		RaterID:  user.Username,
		Score:    req.Score,
		Comment:  req.Comment,
	}); err != nil {
		slog.Error("upsert human rating", "answer_id", req.AnswerID, "error", err)
		respondError(w, http.StatusInternalServerError, "rating failed")
		return
	}

	final, err := h.eval.RecomputeFinal(req.AnswerID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			respondError(w, http.StatusNotFound, "answer not found")
			return
		}
		slog.Error("recompute final", "answer_id", req.AnswerID, "error", err)
		respondError(w, http.StatusInternalServerError, "rating failed")
		return
	}

	respondJSON(w, http.StatusOK, final)
}
