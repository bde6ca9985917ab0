package handler

import (
	"encoding/csv"
	"io"
	"log/slog"
	"math"
	"net/http"
	"sort"
	"strconv"

	"github.com/smaragdas/softskills/internal/agreement"
	"github.com/smaragdas/softskills/internal/model"
	"github.com/smaragdas/softskills/internal/scoring"
)

func (h *Handler) handleReliability(w http.ResponseWriter, r *http.Request) {
	category := scoring.NormalizeCategory(r.URL.Query().Get("category"))
	qtype, ok := parseQType(r.URL.Query().Get("qtype"))
	if !ok {
		respondError(w, http.StatusBadRequest, model.ErrUnknownQType.Error())
		return
	}

	total, err := h.store.CountAnswers(category, qtype)
	if err != nil {
		slog.Error("count answers", "error", err)
		respondError(w, http.StatusInternalServerError, "report failed")
		return
	}
	ratings, err := h.store.RatingsByAnswer(category, qtype)
	if err != nil {
		slog.Error("load human ratings", "error", err)
		respondError(w, http.StatusInternalServerError, "report failed")
		return
	}
	autoScores, err := h.store.AutoScoresByAnswer(category, qtype)
	if err != nil {
		slog.Error("load auto scores", "error", err)
		respondError(w, http.StatusInternalServerError, "report failed")
		return
	}

	respondJSON(w, http.StatusOK, buildReliabilityReport(category, qtype, total, ratings, autoScores))
}

// buildReliabilityReport computes the rater agreement metrics for one
// category/qtype slice. Undefined metrics come out as nil.
func buildReliabilityReport(category model.Category, qtype model.QType, total int,
	ratings map[string]map[string]float64, autoScores map[string]float64) model.ReliabilityReport {

	raterSet := make(map[string]struct{})
	for _, byRater := range ratings {
		for rater := range byRater {
			raterSet[rater] = struct{}{}
		}
	}
	raters := make([]string, 0, len(raterSet))
	for rater := range raterSet {
		raters = append(raters, rater)
	}
	sort.Strings(raters)

	kappaMean, kappaPairs := agreement.PairwiseKappa(ratings, raters)

	// Rows are answers with at least one human rating, columns the raters.
	// Missing cells are NaN and get column-mean imputed inside ICC2k.
	answerIDs := make([]string, 0, len(ratings))
	for id := range ratings {
		answerIDs = append(answerIDs, id)
	}
	sort.Strings(answerIDs)
	matrix := make([][]float64, len(answerIDs))
	for i, id := range answerIDs {
		row := make([]float64, len(raters))
		for j, rater := range raters {
			if score, ok := ratings[id][rater]; ok {
				row[j] = score
			} else {
				row[j] = math.NaN()
			}
		}
		matrix[i] = row
	}
	icc := agreement.ICC2k(matrix)

	// Every answer with at least one human rating counts as used; the bias
	// diffs additionally need an auto score.
	used := len(ratings)
	var diffs []float64
	for id, byRater := range ratings {
		auto, ok := autoScores[id]
		if !ok || len(byRater) == 0 {
			continue
		}
		sum := 0.0
		for _, score := range byRater {
			sum += score
		}
		diffs = append(diffs, auto-sum/float64(len(byRater)))
	}
	bias, loaLow, loaHigh := agreement.BiasLoA(diffs)

	return model.ReliabilityReport{
		Filters:           model.ReportFilters{Category: category, QType: qtype},
		InteractionsTotal: total,
		InteractionsUsed:  used,
		UniqueRaters:      len(raters),
		Kappa: model.KappaReport{
			Mean:    agreement.FiniteOrNil(kappaMean),
			Weights: "quadratic",
			Pairs:   kappaPairs,
		},
		ICC: model.ICCReport{ICC2k: agreement.FiniteOrNil(icc)},
		AutoVsHuman: model.BiasReport{
			Bias:    agreement.FiniteOrNil(bias),
			LoALow:  agreement.FiniteOrNil(loaLow),
			LoAHigh: agreement.FiniteOrNil(loaHigh),
		},
	}
}

func (h *Handler) handleAgreementCSV(w http.ResponseWriter, r *http.Request) {
	rows, raters, err := h.store.AgreementReport()
	if err != nil {
		slog.Error("agreement report", "error", err)
		respondError(w, http.StatusInternalServerError, "report failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="agreement.csv"`)
	// BOM so spreadsheet apps detect UTF-8.
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return
	}

	if err := WriteAgreementCSV(w, rows, raters); err != nil {
		slog.Error("write agreement csv", "error", err)
	}
}

// WriteAgreementCSV renders the per-user agreement rows with one dynamic
// column per rater. The export subcommand shares this with the HTTP route.
func WriteAgreementCSV(w io.Writer, rows []model.AgreementRow, raters []string) error {
	cw := csv.NewWriter(w)

	header := []string{"user_id", "category", "n_answers", "auto_mean", "human_mean", "delta", "agreement_within_half"}
	for _, rater := range raters {
		header = append(header, "rater_"+rater)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.UserID,
			string(row.Category),
			strconv.Itoa(row.NAnswers),
			csvFloat(row.AutoMean),
			csvFloat(row.HumanMean),
			csvFloat(row.Delta),
			csvFloat(row.AgreementWithinHalf),
		}
		for _, rater := range raters {
			if mean, ok := row.RaterMeans[rater]; ok {
				record = append(record, strconv.FormatFloat(mean, 'f', 2, 64))
			} else {
				record = append(record, "")
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
