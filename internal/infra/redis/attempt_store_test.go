package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"ranking-session-service/internal/app"
	"ranking-session-service/internal/domain"
)

func TestAttemptStoreMarksLiveness(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewAttemptStore(newClient(mr), time.Hour)
	learner := domain.Learner{ID: "learner-1", DisplayName: "Dana"}

	created := 0
	attempt := store.GetOrCreate("quiz-1", "learner-1", func() *app.Attempt {
		created++
		return app.NewAttempt(sampleQuiz(), learner)
	})
	if created != 1 {
		t.Fatalf("expected one create, got %d", created)
	}
	if !mr.Exists("attempt:quiz-1:learner-1") {
		t.Fatalf("expected liveness key after create")
	}
	if got, _ := mr.Get("attempt:quiz-1:learner-1"); got != attempt.ID() {
		t.Fatalf("liveness key = %q, want attempt id %q", got, attempt.ID())
	}

	// Second call returns the same attempt without re-creating.
	again := store.GetOrCreate("quiz-1", "learner-1", func() *app.Attempt {
		created++
		return app.NewAttempt(sampleQuiz(), learner)
	})
	if created != 1 || again != attempt {
		t.Fatalf("expected existing attempt reused")
	}

	got, ok := store.Get("quiz-1", "learner-1")
	if !ok || got != attempt {
		t.Fatalf("Get did not return stored attempt")
	}

	store.Delete("quiz-1", "learner-1")
	if _, ok := store.Get("quiz-1", "learner-1"); ok {
		t.Fatalf("expected attempt removed")
	}
	if mr.Exists("attempt:quiz-1:learner-1") {
		t.Fatalf("expected liveness key cleared")
	}
}
