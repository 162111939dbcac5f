package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"ranking-session-service/internal/app"
)

// AttemptStore is a Redis-aware implementation of app.AttemptRepository.
// Notes:
//   - Attempts themselves stay in a local map: the state machine is pure
//     in-process state and drafts are explicitly non-durable.
//   - Redis marks attempt liveness so operators can see which learners are
//     mid-attempt across instances (and it could route sticky sessions).
type AttemptStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	attempts map[string]*app.Attempt
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{
		client:   client,
		ttl:      ttl,
		attempts: make(map[string]*app.Attempt),
	}
}

func (s *AttemptStore) GetOrCreate(quizID, learnerID string, create func() *app.Attempt) *app.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := quizID + "|" + learnerID
	if attempt, ok := s.attempts[key]; ok {
		return attempt
	}
	attempt := create()
	s.attempts[key] = attempt
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(quizID, learnerID), attempt.ID(), s.ttl).Err()
	return attempt
}

func (s *AttemptStore) Get(quizID, learnerID string) (*app.Attempt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[quizID+"|"+learnerID]
	return attempt, ok
}

func (s *AttemptStore) Delete(quizID, learnerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, quizID+"|"+learnerID)
	_ = s.client.Del(context.Background(), s.key(quizID, learnerID)).Err()
}

func (s *AttemptStore) key(quizID, learnerID string) string {
	return "attempt:" + quizID + ":" + learnerID
}
