package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ranking-session-service/internal/domain"
)

// Catalog loads quiz content (from cache/backing store).
type Catalog interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
}

// Submitter is the opaque grading service. It receives the assembled payload
// and returns the scored record; the engine never computes scores itself.
// Submissions must be safe to retry.
type Submitter interface {
	Submit(ctx context.Context, payload domain.SubmissionPayload) (domain.ScoreRecord, error)
}

// ScoreStore persists graded records and their correction ledgers. Each
// ApplyCorrection call is an atomic append against the authoritative store;
// callers never correct a locally cached record.
type ScoreStore interface {
	Save(ctx context.Context, record domain.ScoreRecord) error
	Get(ctx context.Context, scoreID string) (domain.ScoreRecord, error)
	Find(ctx context.Context, quizID, learnerID string) (domain.ScoreRecord, error)
	ForLearner(ctx context.Context, learnerID string) ([]domain.ScoreRecord, error)
	Completed(ctx context.Context, quizID, learnerID string) (bool, error)
	ApplyCorrection(ctx context.Context, scoreID string, entry domain.AuditEntry) (domain.ScoreRecord, error)
}

// AttemptRepository abstracts how in-flight attempts are stored. Attempts
// only live for the process lifetime; abandoning one loses all drafts.
type AttemptRepository interface {
	GetOrCreate(quizID, learnerID string, create func() *Attempt) *Attempt
	Get(quizID, learnerID string) (*Attempt, bool)
	Delete(quizID, learnerID string)
}

// SessionService contains the assessment session use cases.
type SessionService struct {
	attempts AttemptRepository
	catalog  Catalog
	scores   ScoreStore
	grader   Submitter
	now      func() time.Time
}

func NewSessionService(attempts AttemptRepository, catalog Catalog, scores ScoreStore, grader Submitter) *SessionService {
	return &SessionService{
		attempts: attempts,
		catalog:  catalog,
		scores:   scores,
		grader:   grader,
		now:      time.Now,
	}
}

// StartAttempt begins (or resumes) an attempt at a quiz. A quiz the learner
// already completed never re-enters the briefing: the existing record is
// returned in a reviewing snapshot instead.
func (s *SessionService) StartAttempt(ctx context.Context, quizID string, learner domain.Learner) (Snapshot, error) {
	done, err := s.scores.Completed(ctx, quizID, learner.ID)
	if err != nil {
		return Snapshot{}, err
	}
	if done {
		record, err := s.scores.Find(ctx, quizID, learner.ID)
		if err != nil {
			return Snapshot{}, err
		}
		return Snapshot{QuizID: quizID, State: StateReviewing, Record: &record}, nil
	}

	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return Snapshot{}, err
	}

	attempt := s.attempts.GetOrCreate(quizID, learner.ID, func() *Attempt {
		return NewAttempt(quiz, learner)
	})
	return attempt.Snapshot(), nil
}

// Acknowledge dismisses the briefing and reveals the first question's
// constraint points.
func (s *SessionService) Acknowledge(ctx context.Context, quizID, learnerID string) (Snapshot, error) {
	return s.apply(quizID, learnerID, (*Attempt).Acknowledge)
}

// RevealOptions exposes the current question's rankable options.
func (s *SessionService) RevealOptions(ctx context.Context, quizID, learnerID string) (Snapshot, error) {
	return s.apply(quizID, learnerID, (*Attempt).RevealOptions)
}

// Reorder moves one option within the working draft.
func (s *SessionService) Reorder(ctx context.Context, quizID, learnerID string, from, to int) (Snapshot, error) {
	return s.apply(quizID, learnerID, func(a *Attempt) error { return a.Reorder(from, to) })
}

// SetJustification updates the working draft's justification text.
func (s *SessionService) SetJustification(ctx context.Context, quizID, learnerID, text string) (Snapshot, error) {
	return s.apply(quizID, learnerID, func(a *Attempt) error { return a.SetJustification(text) })
}

// Back returns to the previous question with its stored draft restored.
func (s *SessionService) Back(ctx context.Context, quizID, learnerID string) (Snapshot, error) {
	return s.apply(quizID, learnerID, (*Attempt).Back)
}

// Advance finalizes the current draft and moves forward. On the last
// question it submits all finalized drafts to the grading service exactly
// once; a second advance while one is in flight is silently ignored. A
// grading failure rolls the attempt back to its last answering state with
// drafts untouched, and the returned error is retryable.
func (s *SessionService) Advance(ctx context.Context, quizID, learnerID string) (Snapshot, error) {
	attempt, ok := s.attempts.Get(quizID, learnerID)
	if !ok {
		return Snapshot{}, domain.ErrAttemptNotFound
	}

	payload, err := attempt.beginAdvance()
	if err != nil {
		return attempt.Snapshot(), err
	}
	if payload == nil {
		return attempt.Snapshot(), nil
	}

	record, err := s.grader.Submit(ctx, *payload)
	if err != nil {
		attempt.failSubmission()
		return attempt.Snapshot(), &domain.SubmissionError{Cause: err}
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = s.now()
	}
	attempt.completeSubmission(record)

	if err := s.scores.Save(ctx, record); err != nil {
		return attempt.Snapshot(), fmt.Errorf("persist score: %w", err)
	}
	return attempt.Snapshot(), nil
}

// Review moves a submitted attempt into the results view.
func (s *SessionService) Review(ctx context.Context, quizID, learnerID string) (Snapshot, error) {
	return s.apply(quizID, learnerID, (*Attempt).Review)
}

// Abandon discards the attempt and every draft in it.
func (s *SessionService) Abandon(ctx context.Context, quizID, learnerID string) {
	s.attempts.Delete(quizID, learnerID)
}

// Snapshot returns the current read-only view of an attempt.
func (s *SessionService) Snapshot(ctx context.Context, quizID, learnerID string) (Snapshot, error) {
	attempt, ok := s.attempts.Get(quizID, learnerID)
	if !ok {
		return Snapshot{}, domain.ErrAttemptNotFound
	}
	return attempt.Snapshot(), nil
}

// AvailableQuizzes lists catalog quizzes the learner has not yet completed.
func (s *SessionService) AvailableQuizzes(ctx context.Context, learnerID string) ([]domain.Quiz, error) {
	quizzes, err := s.catalog.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	available := make([]domain.Quiz, 0, len(quizzes))
	for _, quiz := range quizzes {
		done, err := s.scores.Completed(ctx, quiz.ID, learnerID)
		if err != nil {
			return nil, err
		}
		if !done {
			available = append(available, quiz)
		}
	}
	return available, nil
}

// Results loads a score record together with its display projection.
func (s *SessionService) Results(ctx context.Context, scoreID string) (domain.ScoreRecord, domain.Insights, error) {
	record, err := s.scores.Get(ctx, scoreID)
	if err != nil {
		return domain.ScoreRecord{}, domain.Insights{}, err
	}
	return record, domain.ProjectInsights(record), nil
}

// LearnerScores returns the learner's graded history for the review view.
func (s *SessionService) LearnerScores(ctx context.Context, learnerID string) ([]domain.ScoreRecord, error) {
	return s.scores.ForLearner(ctx, learnerID)
}

// Correct appends an instructor correction to a score record's ledger. The
// entry id and timestamp are stamped here; validation and the atomic append
// happen against the authoritative store. Anonymous edits are refused: every
// ledger entry names its editor.
func (s *SessionService) Correct(ctx context.Context, scoreID string, entry domain.AuditEntry) (domain.ScoreRecord, error) {
	if strings.TrimSpace(entry.Editor) == "" {
		return domain.ScoreRecord{}, domain.ErrUnauthorized
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.EditedAt.IsZero() {
		entry.EditedAt = s.now()
	}
	return s.scores.ApplyCorrection(ctx, scoreID, entry)
}

func (s *SessionService) apply(quizID, learnerID string, action func(*Attempt) error) (Snapshot, error) {
	attempt, ok := s.attempts.Get(quizID, learnerID)
	if !ok {
		return Snapshot{}, domain.ErrAttemptNotFound
	}
	if err := action(attempt); err != nil {
		return attempt.Snapshot(), err
	}
	return attempt.Snapshot(), nil
}
