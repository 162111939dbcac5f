package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ranking-session-service/internal/app"
	"ranking-session-service/internal/domain"
	"ranking-session-service/internal/infra/memory"
	"ranking-session-service/internal/infra/scoring"
)

func newAPIServer(t *testing.T, scores app.ScoreStore) *httptest.Server {
	t.Helper()
	service := app.NewSessionService(
		memory.NewAttemptStore(),
		memory.NewCatalog(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute),
		scores,
		scoring.FlatGrader{Score: 70},
	)
	mux := http.NewServeMux()
	NewAPIHandler(service).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestListQuizzesFiltersCompleted(t *testing.T) {
	scores := memory.NewScoreStore()
	server := newAPIServer(t, scores)

	resp, err := http.Get(server.URL + "/api/quizzes?learnerId=l1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var quizzes []domain.Quiz
	decodeBody(t, resp, &quizzes)
	if len(quizzes) != 1 || quizzes[0].ID != "quiz-1" {
		t.Fatalf("expected quiz-1 available, got %+v", quizzes)
	}

	if err := scores.Save(context.Background(), domain.ScoreRecord{
		ID:        "score-1",
		QuizID:    "quiz-1",
		LearnerID: "l1",
		MaxScore:  100,
	}); err != nil {
		t.Fatalf("seed score: %v", err)
	}

	resp, err = http.Get(server.URL + "/api/quizzes?learnerId=l1")
	if err != nil {
		t.Fatalf("get 2: %v", err)
	}
	decodeBody(t, resp, &quizzes)
	if len(quizzes) != 0 {
		t.Fatalf("completed quiz should be filtered, got %+v", quizzes)
	}
}

func TestResultsIncludeInsights(t *testing.T) {
	scores := memory.NewScoreStore()
	server := newAPIServer(t, scores)

	if err := scores.Save(context.Background(), domain.ScoreRecord{
		ID:         "score-1",
		QuizID:     "quiz-1",
		LearnerID:  "l1",
		TotalScore: 95,
		MaxScore:   100,
		Percentage: 95,
	}); err != nil {
		t.Fatalf("seed score: %v", err)
	}

	resp, err := http.Get(server.URL + "/api/results/score-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var payload struct {
		Record   domain.ScoreRecord `json:"record"`
		Insights domain.Insights    `json:"insights"`
	}
	decodeBody(t, resp, &payload)
	if payload.Insights.Performance.Level != "Legendary" {
		t.Fatalf("expected Legendary at 95%%, got %q", payload.Insights.Performance.Level)
	}

	resp, err = http.Get(server.URL + "/api/results/missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown score, got %d", resp.StatusCode)
	}
}

func TestCorrectionEndpoint(t *testing.T) {
	scores := memory.NewScoreStore()
	server := newAPIServer(t, scores)

	if err := scores.Save(context.Background(), domain.ScoreRecord{
		ID:         "score-1",
		QuizID:     "quiz-1",
		LearnerID:  "l1",
		TotalScore: 72,
		MaxScore:   100,
		Percentage: 72,
	}); err != nil {
		t.Fatalf("seed score: %v", err)
	}

	body, _ := json.Marshal(map[string]any{
		"scope":    "total",
		"newValue": 85,
		"reason":   "partial credit for the rationale",
		"editor":   "prof-1",
	})
	resp, err := http.Post(server.URL+"/api/results/score-1/corrections", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	var record domain.ScoreRecord
	decodeBody(t, resp, &record)
	if record.TotalScore != 85 || len(record.History) != 1 {
		t.Fatalf("correction not applied: %+v", record)
	}
	if record.History[0].OldValue != 72 || record.History[0].Editor != "prof-1" {
		t.Fatalf("ledger entry wrong: %+v", record.History[0])
	}

	// A blank reason is rejected before anything is written.
	body, _ = json.Marshal(map[string]any{
		"scope":    "total",
		"newValue": 90,
		"reason":   "   ",
		"editor":   "prof-1",
	})
	resp, err = http.Post(server.URL+"/api/results/score-1/corrections", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post 2: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for blank reason, got %d", resp.StatusCode)
	}
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}
