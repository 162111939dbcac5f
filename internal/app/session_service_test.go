package app_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"ranking-session-service/internal/app"
	"ranking-session-service/internal/domain"
	"ranking-session-service/internal/infra/memory"
	"ranking-session-service/internal/infra/scoring"
)

var alice = domain.Learner{ID: "learner-1", DisplayName: "Alice", College: "Starfleet"}

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "word"
	}
	return strings.Join(parts, " ")
}

func threeOptionQuiz(questions int) domain.Quiz {
	quiz := domain.Quiz{
		ID:          "quiz-1",
		Title:       "Supply Chain Triage",
		Description: "Rank the interventions",
	}
	for i := 0; i < questions; i++ {
		quiz.Questions = append(quiz.Questions, domain.Question{
			ID:      "q" + string(rune('1'+i)),
			Prompt:  "Rank the options",
			Options: []domain.Option{{Text: "A"}, {Text: "B"}, {Text: "C"}},
			Constraints: []domain.ConstraintPoint{
				{Text: "Budget is fixed"},
			},
		})
	}
	return quiz
}

// capturingGrader records submitted payloads and can block or fail on demand.
type capturingGrader struct {
	mu       sync.Mutex
	payloads []domain.SubmissionPayload
	err      error
	release  chan struct{}
	inner    scoring.FlatGrader
}

func (g *capturingGrader) Submit(ctx context.Context, payload domain.SubmissionPayload) (domain.ScoreRecord, error) {
	g.mu.Lock()
	g.payloads = append(g.payloads, payload)
	release := g.release
	err := g.err
	g.mu.Unlock()

	if release != nil {
		<-release
	}
	if err != nil {
		return domain.ScoreRecord{}, err
	}
	return g.inner.Submit(ctx, payload)
}

func (g *capturingGrader) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.payloads)
}

func newTestService(quiz domain.Quiz, grader app.Submitter) (*app.SessionService, *memory.ScoreStore) {
	scores := memory.NewScoreStore()
	catalog := memory.NewCatalog(memory.NewStaticQuizLoader(map[string]domain.Quiz{quiz.ID: quiz}), 5*time.Minute)
	service := app.NewSessionService(memory.NewAttemptStore(), catalog, scores, grader)
	return service, scores
}

// answerCurrent reveals, reorders and justifies the question in play.
func answerCurrent(t *testing.T, service *app.SessionService, moves [][2]int, justification string) {
	t.Helper()
	ctx := context.Background()
	if _, err := service.RevealOptions(ctx, "quiz-1", alice.ID); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	for _, m := range moves {
		if _, err := service.Reorder(ctx, "quiz-1", alice.ID, m[0], m[1]); err != nil {
			t.Fatalf("reorder(%d,%d): %v", m[0], m[1], err)
		}
	}
	if _, err := service.SetJustification(ctx, "quiz-1", alice.ID, justification); err != nil {
		t.Fatalf("justify: %v", err)
	}
}

func TestFullAttemptScenario(t *testing.T) {
	ctx := context.Background()
	grader := &capturingGrader{inner: scoring.FlatGrader{Score: 80}}
	service, scores := newTestService(threeOptionQuiz(2), grader)

	snap, err := service.StartAttempt(ctx, "quiz-1", alice)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.State != app.StateBriefed || snap.Briefing == nil {
		t.Fatalf("expected briefed snapshot, got %+v", snap)
	}
	if snap.Briefing.PassingScore != 60 {
		t.Fatalf("expected default passing score 60, got %d", snap.Briefing.PassingScore)
	}

	snap, err = service.Acknowledge(ctx, "quiz-1", alice.ID)
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if snap.State != app.StateRevealing || snap.Question == nil || snap.Question.Revealed {
		t.Fatalf("expected reveal gate with hidden options, got %+v", snap)
	}
	if len(snap.Question.Constraints) != 1 {
		t.Fatalf("constraint points missing from reveal gate: %+v", snap.Question)
	}

	// Question 1: [A,B,C] -> [C,A,B], 25 words.
	answerCurrent(t, service, [][2]int{{2, 0}}, "  "+words(25)+"  ")
	snap, err = service.Advance(ctx, "quiz-1", alice.ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if snap.State != app.StateRevealing || snap.Question.Index != 1 {
		t.Fatalf("expected reveal gate for question 2, got %+v", snap)
	}

	// Question 2: [A,B,C] -> [B,C,A], 30 words, submit.
	answerCurrent(t, service, [][2]int{{0, 2}}, words(30))
	snap, err = service.Advance(ctx, "quiz-1", alice.ID)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if snap.State != app.StateSubmitted || snap.Record == nil {
		t.Fatalf("expected submitted snapshot with record, got %+v", snap)
	}

	if grader.calls() != 1 {
		t.Fatalf("expected exactly one submission, got %d", grader.calls())
	}
	payload := grader.payloads[0]
	if len(payload.Answers) != 2 {
		t.Fatalf("expected 2 answers, got %d", len(payload.Answers))
	}
	wantFirst := []domain.RankedOption{{Text: "C", Rank: 1}, {Text: "A", Rank: 2}, {Text: "B", Rank: 3}}
	wantSecond := []domain.RankedOption{{Text: "B", Rank: 1}, {Text: "C", Rank: 2}, {Text: "A", Rank: 3}}
	for i, want := range [][]domain.RankedOption{wantFirst, wantSecond} {
		for j, opt := range want {
			if payload.Answers[i].Ranking[j] != opt {
				t.Fatalf("answer %d ranking %d: got %+v, want %+v", i, j, payload.Answers[i].Ranking[j], opt)
			}
		}
	}
	if payload.Answers[0].Justification != words(25) {
		t.Fatalf("justification not trimmed: %q", payload.Answers[0].Justification)
	}

	// The record is persisted so the quiz now reads as completed.
	done, err := scores.Completed(ctx, "quiz-1", alice.ID)
	if err != nil || !done {
		t.Fatalf("expected completion recorded, done=%v err=%v", done, err)
	}
}

func TestAdvanceValidationBoundaries(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(threeOptionQuiz(2), &capturingGrader{inner: scoring.FlatGrader{Score: 70}})

	if _, err := service.StartAttempt(ctx, "quiz-1", alice); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Acknowledge(ctx, "quiz-1", alice.ID); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}

	answerCurrent(t, service, nil, words(19))
	snap, err := service.Advance(ctx, "quiz-1", alice.ID)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("19 words: expected ValidationError, got %v", err)
	}
	if snap.State != app.StateAnswering || snap.Question.Index != 0 {
		t.Fatalf("rejected advance moved state: %+v", snap)
	}

	if _, err := service.SetJustification(ctx, "quiz-1", alice.ID, words(101)); err != nil {
		t.Fatalf("justify: %v", err)
	}
	if _, err := service.Advance(ctx, "quiz-1", alice.ID); !errors.As(err, &verr) {
		t.Fatalf("101 words: expected ValidationError, got %v", err)
	}

	if _, err := service.SetJustification(ctx, "quiz-1", alice.ID, words(20)); err != nil {
		t.Fatalf("justify: %v", err)
	}
	snap, err = service.Advance(ctx, "quiz-1", alice.ID)
	if err != nil {
		t.Fatalf("20 words should pass: %v", err)
	}
	if snap.Question.Index != 1 {
		t.Fatalf("expected advance to question 2, got %+v", snap)
	}

	if _, err := service.RevealOptions(ctx, "quiz-1", alice.ID); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if _, err := service.SetJustification(ctx, "quiz-1", alice.ID, words(100)); err != nil {
		t.Fatalf("justify: %v", err)
	}
	if _, err := service.Advance(ctx, "quiz-1", alice.ID); err != nil {
		t.Fatalf("100 words should pass: %v", err)
	}
}

func TestBackRestoresDraftsVerbatim(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(threeOptionQuiz(3), &capturingGrader{inner: scoring.FlatGrader{Score: 70}})

	if _, err := service.StartAttempt(ctx, "quiz-1", alice); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Acknowledge(ctx, "quiz-1", alice.ID); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}

	answerCurrent(t, service, [][2]int{{2, 0}}, words(21))
	if _, err := service.Advance(ctx, "quiz-1", alice.ID); err != nil {
		t.Fatalf("advance 1: %v", err)
	}
	answerCurrent(t, service, [][2]int{{0, 1}}, words(22))
	snap, err := service.Advance(ctx, "quiz-1", alice.ID)
	if err != nil {
		t.Fatalf("advance 2: %v", err)
	}
	if snap.Question.Index != 2 {
		t.Fatalf("expected question 3, got %+v", snap)
	}

	// Back to question 2: stored draft restored with options already open.
	if _, err := service.RevealOptions(ctx, "quiz-1", alice.ID); err != nil {
		t.Fatalf("reveal q3: %v", err)
	}
	snap, err = service.Back(ctx, "quiz-1", alice.ID)
	if err != nil {
		t.Fatalf("back: %v", err)
	}
	if snap.State != app.StateAnswering || snap.Question.Index != 1 || !snap.Question.Revealed {
		t.Fatalf("expected restored answering state, got %+v", snap)
	}
	if snap.Draft.Justification != words(22) {
		t.Fatalf("justification not restored: %q", snap.Draft.Justification)
	}
	if snap.Draft.Ranking[0].Text != "B" || snap.Draft.Ranking[1].Text != "A" {
		t.Fatalf("ranking not restored: %+v", snap.Draft.Ranking)
	}

	// Back again, then forward: both drafts identical to what was stored.
	snap, err = service.Back(ctx, "quiz-1", alice.ID)
	if err != nil {
		t.Fatalf("back to q1: %v", err)
	}
	if snap.Draft.Ranking[0].Text != "C" || snap.Draft.Justification != words(21) {
		t.Fatalf("q1 draft not restored: %+v", snap.Draft)
	}

	snap, err = service.Advance(ctx, "quiz-1", alice.ID)
	if err != nil {
		t.Fatalf("re-advance: %v", err)
	}
	if snap.State != app.StateAnswering || snap.Question.Index != 1 {
		t.Fatalf("expected direct return to answered question 2, got %+v", snap)
	}
	if snap.Draft.Justification != words(22) {
		t.Fatalf("q2 draft lost on re-advance: %+v", snap.Draft)
	}
}

func TestSingleFlightSubmission(t *testing.T) {
	ctx := context.Background()
	grader := &capturingGrader{inner: scoring.FlatGrader{Score: 90}, release: make(chan struct{})}
	service, _ := newTestService(threeOptionQuiz(1), grader)

	if _, err := service.StartAttempt(ctx, "quiz-1", alice); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Acknowledge(ctx, "quiz-1", alice.ID); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	answerCurrent(t, service, nil, words(40))

	done := make(chan error, 1)
	go func() {
		_, err := service.Advance(ctx, "quiz-1", alice.ID)
		done <- err
	}()

	// Wait for the first submit to be in flight.
	for i := 0; grader.calls() == 0; i++ {
		if i > 100 {
			t.Fatalf("first submission never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A second advance during the flight is silently ignored.
	snap, err := service.Advance(ctx, "quiz-1", alice.ID)
	if err != nil {
		t.Fatalf("duplicate advance should be silent, got %v", err)
	}
	if snap.State != app.StateSubmitting {
		t.Fatalf("expected submitting state, got %s", snap.State)
	}

	// Draft edits are disabled during the flight.
	if _, err := service.Reorder(ctx, "quiz-1", alice.ID, 0, 1); err != domain.ErrInvalidTransition {
		t.Fatalf("expected edits rejected while submitting, got %v", err)
	}

	close(grader.release)
	if err := <-done; err != nil {
		t.Fatalf("first advance: %v", err)
	}
	if grader.calls() != 1 {
		t.Fatalf("expected exactly one payload sent, got %d", grader.calls())
	}
}

func TestSubmissionFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	grader := &capturingGrader{inner: scoring.FlatGrader{Score: 90}, err: errors.New("scorer unreachable")}
	service, _ := newTestService(threeOptionQuiz(1), grader)

	if _, err := service.StartAttempt(ctx, "quiz-1", alice); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Acknowledge(ctx, "quiz-1", alice.ID); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	answerCurrent(t, service, [][2]int{{1, 0}}, words(33))

	snap, err := service.Advance(ctx, "quiz-1", alice.ID)
	var serr *domain.SubmissionError
	if !errors.As(err, &serr) {
		t.Fatalf("expected SubmissionError, got %v", err)
	}
	if snap.State != app.StateAnswering || snap.Question.Index != 0 {
		t.Fatalf("expected rollback to answering, got %+v", snap)
	}
	if snap.Draft.Justification != words(33) || snap.Draft.Ranking[0].Text != "B" {
		t.Fatalf("drafts corrupted by failed submission: %+v", snap.Draft)
	}

	// Retry succeeds once the grader recovers.
	grader.mu.Lock()
	grader.err = nil
	grader.mu.Unlock()
	snap, err = service.Advance(ctx, "quiz-1", alice.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if snap.State != app.StateSubmitted {
		t.Fatalf("expected submitted after retry, got %s", snap.State)
	}
}

func TestCompletedQuizRoutesToReview(t *testing.T) {
	ctx := context.Background()
	service, scores := newTestService(threeOptionQuiz(1), &capturingGrader{inner: scoring.FlatGrader{Score: 70}})

	record := domain.ScoreRecord{ID: "score-1", QuizID: "quiz-1", LearnerID: alice.ID, TotalScore: 88, MaxScore: 100, Percentage: 88}
	if err := scores.Save(ctx, record); err != nil {
		t.Fatalf("seed score: %v", err)
	}

	snap, err := service.StartAttempt(ctx, "quiz-1", alice)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.State != app.StateReviewing || snap.Record == nil || snap.Record.ID != "score-1" {
		t.Fatalf("expected reviewing snapshot with existing record, got %+v", snap)
	}

	// No attempt was created: the briefing is never re-entered.
	if _, err := service.Snapshot(ctx, "quiz-1", alice.ID); err != domain.ErrAttemptNotFound {
		t.Fatalf("expected no attempt, got %v", err)
	}
}

func TestAbandonDiscardsDrafts(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService(threeOptionQuiz(2), &capturingGrader{inner: scoring.FlatGrader{Score: 70}})

	if _, err := service.StartAttempt(ctx, "quiz-1", alice); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := service.Acknowledge(ctx, "quiz-1", alice.ID); err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	answerCurrent(t, service, nil, words(25))
	if _, err := service.Advance(ctx, "quiz-1", alice.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}

	service.Abandon(ctx, "quiz-1", alice.ID)

	snap, err := service.StartAttempt(ctx, "quiz-1", alice)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if snap.State != app.StateBriefed {
		t.Fatalf("expected fresh attempt after abandon, got %s", snap.State)
	}
}

func TestCorrectAppendsToLedger(t *testing.T) {
	ctx := context.Background()
	service, scores := newTestService(threeOptionQuiz(1), &capturingGrader{inner: scoring.FlatGrader{Score: 70}})

	record := domain.ScoreRecord{
		ID: "score-1", QuizID: "quiz-1", LearnerID: alice.ID,
		TotalScore: 72, MaxScore: 100, Percentage: 72,
		PerQuestion: []domain.QuestionResult{{QuestionText: "Q1", RankingScore: 72}},
	}
	if err := scores.Save(ctx, record); err != nil {
		t.Fatalf("seed: %v", err)
	}

	updated, err := service.Correct(ctx, "score-1", domain.AuditEntry{
		Scope:    domain.ScopeTotal,
		NewValue: 85,
		Reason:   "regrade after dispute",
		Editor:   "admin-1",
	})
	if err != nil {
		t.Fatalf("correct: %v", err)
	}
	if updated.TotalScore != 85 || updated.Percentage != 85 {
		t.Fatalf("expected corrected totals, got %+v", updated)
	}
	if len(updated.History) != 1 || updated.History[0].ID == "" || updated.History[0].EditedAt.IsZero() {
		t.Fatalf("expected stamped audit entry, got %+v", updated.History)
	}

	if _, err := service.Correct(ctx, "score-1", domain.AuditEntry{Scope: domain.ScopeTotal, NewValue: 90, Reason: " ", Editor: "admin-1"}); err == nil {
		t.Fatalf("expected rejection for empty reason")
	}
	if _, err := service.Correct(ctx, "score-1", domain.AuditEntry{Scope: domain.ScopeTotal, NewValue: 90, Reason: "valid reason"}); err != domain.ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized for anonymous edit, got %v", err)
	}
	stored, err := scores.Get(ctx, "score-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.History) != 1 {
		t.Fatalf("rejected correction reached the ledger: %+v", stored.History)
	}
}

func TestAvailableQuizzesFiltersCompleted(t *testing.T) {
	ctx := context.Background()
	scores := memory.NewScoreStore()
	loader := memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {ID: "quiz-1", Title: "One"},
		"quiz-2": {ID: "quiz-2", Title: "Two"},
	})
	service := app.NewSessionService(memory.NewAttemptStore(), memory.NewCatalog(loader, time.Minute), scores, scoring.FlatGrader{Score: 70})

	if err := scores.Save(ctx, domain.ScoreRecord{ID: "s1", QuizID: "quiz-1", LearnerID: alice.ID}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	available, err := service.AvailableQuizzes(ctx, alice.ID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if len(available) != 1 || available[0].ID != "quiz-2" {
		t.Fatalf("expected only quiz-2, got %+v", available)
	}
}
