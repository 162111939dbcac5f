package memory

import (
	"sync"

	"ranking-session-service/internal/app"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository,
// keyed by quiz and learner. Attempts never outlive the process; an
// abandoned attempt loses all of its drafts.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) GetOrCreate(quizID, learnerID string, create func() *app.Attempt) *app.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attemptKey(quizID, learnerID)
	if attempt, ok := s.attempts[key]; ok {
		return attempt
	}
	attempt := create()
	s.attempts[key] = attempt
	return attempt
}

func (s *AttemptStore) Get(quizID, learnerID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[attemptKey(quizID, learnerID)]
	return attempt, ok
}

func (s *AttemptStore) Delete(quizID, learnerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, attemptKey(quizID, learnerID))
}

func attemptKey(quizID, learnerID string) string {
	return quizID + "|" + learnerID
}
