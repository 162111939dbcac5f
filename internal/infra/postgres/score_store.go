package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ranking-session-service/internal/domain"
)

// ScoreStore persists graded records as JSONB, one row per quiz/learner
// pair. Corrections run in a transaction that re-reads the row FOR UPDATE,
// so two concurrent edits cannot lose a ledger entry.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) Save(ctx context.Context, record domain.ScoreRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal score: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO scores (id, quiz_id, learner_id, submitted_at, data)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (quiz_id, learner_id) DO UPDATE
		   SET id = EXCLUDED.id,
		       submitted_at = EXCLUDED.submitted_at,
		       data = EXCLUDED.data`,
		record.ID, record.QuizID, record.LearnerID, record.SubmittedAt, data)
	if err != nil {
		return fmt.Errorf("save score: %w", err)
	}
	return nil
}

func (s *ScoreStore) Get(ctx context.Context, scoreID string) (domain.ScoreRecord, error) {
	return s.scanOne(ctx, `SELECT data FROM scores WHERE id=$1`, scoreID)
}

func (s *ScoreStore) Find(ctx context.Context, quizID, learnerID string) (domain.ScoreRecord, error) {
	return s.scanOne(ctx, `SELECT data FROM scores WHERE quiz_id=$1 AND learner_id=$2`, quizID, learnerID)
}

func (s *ScoreStore) ForLearner(ctx context.Context, learnerID string) ([]domain.ScoreRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM scores WHERE learner_id=$1 ORDER BY submitted_at`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var records []domain.ScoreRecord
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		var record domain.ScoreRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("unmarshal score: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *ScoreStore) Completed(ctx context.Context, quizID, learnerID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM scores WHERE quiz_id=$1 AND learner_id=$2)`,
		quizID, learnerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check completion: %w", err)
	}
	return exists, nil
}

func (s *ScoreStore) ApplyCorrection(ctx context.Context, scoreID string, entry domain.AuditEntry) (domain.ScoreRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("begin correction: %w", err)
	}
	defer tx.Rollback(ctx)

	var raw []byte
	err = tx.QueryRow(ctx, `SELECT data FROM scores WHERE id=$1 FOR UPDATE`, scoreID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ScoreRecord{}, domain.ErrScoreNotFound
	}
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("lock score: %w", err)
	}

	var record domain.ScoreRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("unmarshal score: %w", err)
	}

	updated, err := domain.ApplyCorrection(record, entry)
	if err != nil {
		return domain.ScoreRecord{}, err
	}

	data, err := json.Marshal(updated)
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("marshal score: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE scores SET data=$2 WHERE id=$1`, scoreID, data); err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("update score: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("commit correction: %w", err)
	}
	return updated, nil
}

func (s *ScoreStore) scanOne(ctx context.Context, query string, args ...interface{}) (domain.ScoreRecord, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, query, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ScoreRecord{}, domain.ErrScoreNotFound
	}
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("load score: %w", err)
	}
	var record domain.ScoreRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("unmarshal score: %w", err)
	}
	return record, nil
}
