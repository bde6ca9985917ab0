package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/smaragdas/softskills/internal/evaluator"
	appI18n "github.com/smaragdas/softskills/internal/i18n"
	"github.com/smaragdas/softskills/internal/model"
	"github.com/smaragdas/softskills/internal/scoring"
	"github.com/smaragdas/softskills/internal/store"
)

func newTestServer(t *testing.T, apiKey string) (*httptest.Server, *store.Store) {
	t.Helper()
	if err := appI18n.Init("en"); err != nil {
		t.Fatalf("i18n init: %v", err)
	}
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	eval := evaluator.New(s, nil, nil, nil, scoring.DefaultHumanWeight)
	h := New(s, eval, Config{APIKey: apiKey})

	r := chi.NewRouter()
	r.Use(appI18n.Middleware("en"))
	h.Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, s
}

func postJSON(t *testing.T, client *http.Client, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func TestEvaluateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "secret-key")
	auth := map[string]string{"X-API-Key": "secret-key"}

	t.Run("rejects missing api key", func(t *testing.T) {
		resp := postJSON(t, srv.Client(), srv.URL+"/evaluate", model.EvalRequest{}, nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("rejects empty answer", func(t *testing.T) {
		resp := postJSON(t, srv.Client(), srv.URL+"/evaluate", model.EvalRequest{
			UserID: "u1", QuestionID: "q1", Category: "teamwork", QType: model.QTypeOpen,
			AnswerText: "   ",
		}, auth)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("rejects unknown qtype", func(t *testing.T) {
		resp := postJSON(t, srv.Client(), srv.URL+"/evaluate", model.EvalRequest{
			UserID: "u1", QuestionID: "q1", Category: "teamwork", QType: "essay",
			AnswerText: "an answer",
		}, auth)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("scores an open answer", func(t *testing.T) {
		resp := postJSON(t, srv.Client(), srv.URL+"/evaluate", model.EvalRequest{
			UserID: "u1", QuestionID: "q1", Category: "team", QType: model.QTypeOpen,
			AnswerText: "we split the work by strength",
			Text:       &model.TextInput{Clarity: 8, Coherence: 6, VocabularyRange: 4, TopicRelevance: 10},
		}, auth)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var result model.EvalResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if result.Overall != 7 {
			t.Errorf("overall = %v, want 7", result.Overall)
		}
		if result.Category != model.CategoryTeamwork {
			t.Errorf("category = %q, want teamwork (alias resolution)", result.Category)
		}
		// Localized fallback feedback: score summary plus the Mid band text.
		if !strings.Contains(result.Feedback, "Overall score: 7 out of 10.") {
			t.Errorf("feedback = %q, want the localized score summary", result.Feedback)
		}
		if !strings.Contains(result.Feedback, "room to grow") {
			t.Errorf("feedback = %q, want localized Mid feedback", result.Feedback)
		}
	})
}

func TestSessionPlanEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, "")

	resp := postJSON(t, srv.Client(), srv.URL+"/evaluate", model.EvalRequest{
		UserID: "u1", QuestionID: "q1", Category: "teamwork", QType: model.QTypeOpen,
		AnswerText: "answer",
		Text:       &model.TextInput{Clarity: 3, Coherence: 5, VocabularyRange: 7, TopicRelevance: 6},
	}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("evaluate status = %d", resp.StatusCode)
	}

	planResp, err := srv.Client().Get(srv.URL + "/session/u1/plan?category=teamwork&qtype=open")
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	defer planResp.Body.Close()
	if planResp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", planResp.StatusCode)
	}

	var payload struct {
		UserID string      `json:"user_id"`
		Plan   *model.Plan `json:"plan"`
	}
	if err := json.NewDecoder(planResp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.UserID != "u1" {
		t.Errorf("user_id = %q", payload.UserID)
	}
	if payload.Plan == nil || len(payload.Plan.Steps) != 3 {
		t.Fatalf("expected a 3-step plan, got %+v", payload.Plan)
	}
}

func TestRaterFlow(t *testing.T) {
	srv, s := newTestServer(t, "")

	hash, err := bcrypt.GenerateFromPassword([]byte("pass1234"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if _, err := s.CreateUser(model.User{
		Username: "rater01", DisplayName: "Rater One",
		PasswordHash: string(hash), Role: model.UserRoleRater, Active: true,
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	resp := postJSON(t, srv.Client(), srv.URL+"/evaluate", model.EvalRequest{
		UserID: "u1", QuestionID: "q1", Category: "teamwork", QType: model.QTypeOpen,
		AnswerText: "answer",
		Text:       &model.TextInput{Clarity: 8, Coherence: 8, VocabularyRange: 8, TopicRelevance: 8},
	}, nil)
	var result model.EvalResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode evaluate: %v", err)
	}
	resp.Body.Close()

	t.Run("rating requires auth", func(t *testing.T) {
		resp := postJSON(t, srv.Client(), srv.URL+"/rater/ratings",
			ratingRequest{AnswerID: result.AnswerID, Score: 7}, nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
	})

	resp = postJSON(t, srv.Client(), srv.URL+"/login",
		loginRequest{Username: "rater01", Password: "wrong"}, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want 401", resp.StatusCode)
	}

	resp = postJSON(t, srv.Client(), srv.URL+"/login",
		loginRequest{Username: "rater01", Password: "pass1234"}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("no session cookie set")
	}
	authHeader := map[string]string{"Cookie": cookie.Name + "=" + cookie.Value}

	t.Run("lists unrated items", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/rater/items?category=teamwork&qtype=open", nil)
		req.AddCookie(cookie)
		itemsResp, err := srv.Client().Do(req)
		if err != nil {
			t.Fatalf("get items: %v", err)
		}
		defer itemsResp.Body.Close()
		var payload struct {
			Items []model.Answer `json:"items"`
		}
		if err := json.NewDecoder(itemsResp.Body).Decode(&payload); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(payload.Items) != 1 || payload.Items[0].ID != result.AnswerID {
			t.Fatalf("items = %+v, want the evaluated answer", payload.Items)
		}
	})

	t.Run("rating recomputes the final score", func(t *testing.T) {
		rateResp := postJSON(t, srv.Client(), srv.URL+"/rater/ratings",
			ratingRequest{AnswerID: result.AnswerID, Score: 6, Comment: "fair"}, authHeader)
		defer rateResp.Body.Close()
		if rateResp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", rateResp.StatusCode)
		}
		var final model.FinalScore
		if err := json.NewDecoder(rateResp.Body).Decode(&final); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if final.HumanAvg == nil || *final.HumanAvg != 6 {
			t.Errorf("human avg = %v, want 6", final.HumanAvg)
		}
		// 0.4*8 + 0.6*6 with the default human weight.
		if d := final.Final - 6.8; d > 1e-9 || d < -1e-9 {
			t.Errorf("final = %v, want 6.8", final.Final)
		}
	})

	t.Run("rejects out-of-range score", func(t *testing.T) {
		rateResp := postJSON(t, srv.Client(), srv.URL+"/rater/ratings",
			ratingRequest{AnswerID: result.AnswerID, Score: 11}, authHeader)
		defer rateResp.Body.Close()
		if rateResp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rateResp.StatusCode)
		}
	})
}

func TestBuildReliabilityReport(t *testing.T) {
	ratings := map[string]map[string]float64{
		"a1": {"r1": 7, "r2": 7},
		"a2": {"r1": 8, "r2": 8},
		"a3": {"r1": 5},
		"a4": {"r1": 4},
	}
	// a4 has no auto score; it still counts as used, just not toward bias.
	autoScores := map[string]float64{"a1": 7.5, "a2": 8, "a3": 6}

	report := buildReliabilityReport(model.CategoryTeamwork, model.QTypeOpen, 5, ratings, autoScores)

	if report.InteractionsTotal != 5 {
		t.Errorf("total = %d, want 5", report.InteractionsTotal)
	}
	if report.InteractionsUsed != 4 {
		t.Errorf("used = %d, want 4", report.InteractionsUsed)
	}
	if report.UniqueRaters != 2 {
		t.Errorf("raters = %d, want 2", report.UniqueRaters)
	}
	if report.Kappa.Weights != "quadratic" {
		t.Errorf("weights = %q", report.Kappa.Weights)
	}
	if report.Kappa.Pairs != 1 {
		t.Errorf("pairs = %d, want 1", report.Kappa.Pairs)
	}
	if report.Kappa.Mean == nil || *report.Kappa.Mean != 1 {
		t.Errorf("kappa mean = %v, want 1 (identical shared ratings)", report.Kappa.Mean)
	}
	if report.ICC.ICC2k == nil {
		t.Error("expected a defined ICC")
	}
	// Diffs are 0.5, 0, 1 so the bias is their mean.
	if report.AutoVsHuman.Bias == nil || *report.AutoVsHuman.Bias != 0.5 {
		t.Errorf("bias = %v, want 0.5", report.AutoVsHuman.Bias)
	}
	if report.AutoVsHuman.LoALow == nil || report.AutoVsHuman.LoAHigh == nil {
		t.Error("expected defined limits of agreement")
	}
}

func TestBuildReliabilityReportEmpty(t *testing.T) {
	report := buildReliabilityReport(model.CategoryTeamwork, model.QTypeOpen, 0, nil, nil)

	if report.UniqueRaters != 0 || report.InteractionsUsed != 0 {
		t.Errorf("expected empty counts, got %+v", report)
	}
	if report.Kappa.Mean != nil || report.ICC.ICC2k != nil || report.AutoVsHuman.Bias != nil {
		t.Errorf("expected nil metrics, got %+v", report)
	}
}

func TestWriteAgreementCSV(t *testing.T) {
	auto, human := 7.0, 5.75
	delta := auto - human
	within := 0.5
	rows := []model.AgreementRow{
		{
			UserID: "u1", Category: model.CategoryTeamwork, NAnswers: 2,
			AutoMean: &auto, HumanMean: &human, Delta: &delta, AgreementWithinHalf: &within,
			RaterMeans: map[string]float64{"r1": 6},
		},
		{UserID: "u2", Category: model.CategoryLeadership, NAnswers: 1, RaterMeans: map[string]float64{}},
	}

	var buf bytes.Buffer
	if err := WriteAgreementCSV(&buf, rows, []string{"r1", "r2"}); err != nil {
		t.Fatalf("WriteAgreementCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "user_id,category,n_answers,auto_mean,human_mean,delta,agreement_within_half,rater_r1,rater_r2" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "u1,teamwork,2,7.00,5.75,1.25,0.50,6.00," {
		t.Errorf("row 1 = %q", lines[1])
	}
	if lines[2] != "u2,leadership,1,,,,,," {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestReliabilityEndpointRejectsBadQType(t *testing.T) {
	srv, _ := newTestServer(t, "")
	resp, err := srv.Client().Get(srv.URL + "/metrics/reliability?category=teamwork&qtype=essay")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
