package memory

import (
	"context"
	"sort"
	"sync"

	"ranking-session-service/internal/domain"
)

// ScoreStore keeps graded records in memory. Corrections are applied under
// the store lock against the stored record, never against a caller's
// snapshot, so the append-only ledger stays consistent.
type ScoreStore struct {
	mu      sync.RWMutex
	records map[string]domain.ScoreRecord
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{records: make(map[string]domain.ScoreRecord)}
}

func (s *ScoreStore) Save(_ context.Context, record domain.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record.Clone()
	return nil
}

func (s *ScoreStore) Get(_ context.Context, scoreID string) (domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[scoreID]
	if !ok {
		return domain.ScoreRecord{}, domain.ErrScoreNotFound
	}
	return record.Clone(), nil
}

func (s *ScoreStore) Find(_ context.Context, quizID, learnerID string) (domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.records {
		if record.QuizID == quizID && record.LearnerID == learnerID {
			return record.Clone(), nil
		}
	}
	return domain.ScoreRecord{}, domain.ErrScoreNotFound
}

func (s *ScoreStore) ForLearner(_ context.Context, learnerID string) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ScoreRecord, 0)
	for _, record := range s.records {
		if record.LearnerID == learnerID {
			out = append(out, record.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (s *ScoreStore) Completed(_ context.Context, quizID, learnerID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, record := range s.records {
		if record.QuizID == quizID && record.LearnerID == learnerID {
			return true, nil
		}
	}
	return false, nil
}

// ApplyCorrection re-reads the stored record and appends atomically under
// the store lock.
func (s *ScoreStore) ApplyCorrection(_ context.Context, scoreID string, entry domain.AuditEntry) (domain.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[scoreID]
	if !ok {
		return domain.ScoreRecord{}, domain.ErrScoreNotFound
	}
	updated, err := domain.ApplyCorrection(record, entry)
	if err != nil {
		return domain.ScoreRecord{}, err
	}
	s.records[scoreID] = updated
	return updated.Clone(), nil
}
