package app

import "ranking-session-service/internal/domain"

// DraftStore holds per-question draft answers across non-linear navigation.
// Slots are ordered by question position and stay sparse until the learner
// advances past a question for the first time. The store copies drafts both
// ways so callers can never alias stored state.
type DraftStore struct {
	slots []*domain.DraftAnswer
}

func NewDraftStore(questions int) *DraftStore {
	return &DraftStore{slots: make([]*domain.DraftAnswer, questions)}
}

// Get returns the draft stored at index, or ok=false if never visited.
func (s *DraftStore) Get(index int) (domain.DraftAnswer, bool) {
	if index < 0 || index >= len(s.slots) || s.slots[index] == nil {
		return domain.DraftAnswer{}, false
	}
	return s.slots[index].Clone(), true
}

// Set overwrites slot index, leaving every other slot untouched.
func (s *DraftStore) Set(index int, draft domain.DraftAnswer) {
	if index < 0 || index >= len(s.slots) {
		return
	}
	stored := draft.Clone()
	s.slots[index] = &stored
}

// Len reports the number of question slots.
func (s *DraftStore) Len() int { return len(s.slots) }

// AllFinal reports whether every slot holds a finalized draft.
func (s *DraftStore) AllFinal() bool {
	for _, slot := range s.slots {
		if slot == nil || !slot.Final {
			return false
		}
	}
	return true
}

// Finalized returns the stored drafts in question order. It must only be
// called once AllFinal holds.
func (s *DraftStore) Finalized() []domain.DraftAnswer {
	out := make([]domain.DraftAnswer, 0, len(s.slots))
	for _, slot := range s.slots {
		if slot != nil {
			out = append(out, slot.Clone())
		}
	}
	return out
}
