package app_test

import (
	"testing"

	"ranking-session-service/internal/app"
	"ranking-session-service/internal/domain"
)

func TestDraftStoreSparseUntilVisited(t *testing.T) {
	store := app.NewDraftStore(3)
	for i := 0; i < 3; i++ {
		if _, ok := store.Get(i); ok {
			t.Fatalf("slot %d should be empty", i)
		}
	}

	draft := domain.DraftAnswer{QuestionID: "q2", Justification: "because"}
	store.Set(1, draft)

	if _, ok := store.Get(0); ok {
		t.Fatalf("set leaked into slot 0")
	}
	if _, ok := store.Get(2); ok {
		t.Fatalf("set leaked into slot 2")
	}
	got, ok := store.Get(1)
	if !ok || got.QuestionID != "q2" {
		t.Fatalf("expected stored draft, got %+v ok=%v", got, ok)
	}
}

func TestDraftStoreCopiesBothWays(t *testing.T) {
	store := app.NewDraftStore(1)
	draft := domain.DraftAnswer{
		QuestionID: "q1",
		Ranking:    domain.NewRanking([]domain.Option{{Text: "A"}, {Text: "B"}}),
	}
	store.Set(0, draft)

	// Mutating the caller's draft must not reach the store.
	draft.Ranking[0].Text = "mutated"
	stored, _ := store.Get(0)
	if stored.Ranking[0].Text != "A" {
		t.Fatalf("store aliased the caller's ranking")
	}

	// Mutating a returned draft must not reach the store either.
	stored.Ranking[1].Text = "mutated"
	again, _ := store.Get(0)
	if again.Ranking[1].Text != "B" {
		t.Fatalf("get returned an aliased ranking")
	}
}

func TestDraftStoreAllFinal(t *testing.T) {
	store := app.NewDraftStore(2)
	if store.AllFinal() {
		t.Fatalf("empty store reported all final")
	}
	store.Set(0, domain.DraftAnswer{QuestionID: "q1", Final: true})
	store.Set(1, domain.DraftAnswer{QuestionID: "q2", Final: false})
	if store.AllFinal() {
		t.Fatalf("non-final slot reported final")
	}
	store.Set(1, domain.DraftAnswer{QuestionID: "q2", Final: true})
	if !store.AllFinal() {
		t.Fatalf("expected all final")
	}
	finalized := store.Finalized()
	if len(finalized) != 2 || finalized[0].QuestionID != "q1" || finalized[1].QuestionID != "q2" {
		t.Fatalf("finalized out of order: %+v", finalized)
	}
}
