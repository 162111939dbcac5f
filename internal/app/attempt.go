package app

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"ranking-session-service/internal/domain"
)

// State is the explicit lifecycle position of an attempt. There is no
// time-based transition anywhere: attempts never expire.
type State string

const (
	// StateBriefed shows the mission briefing; no question is visible yet.
	StateBriefed State = "briefed"
	// StateRevealing shows a question's prompt and constraint points with
	// the rankable options still hidden behind an explicit action.
	StateRevealing State = "revealing"
	// StateAnswering exposes the options and accepts draft edits.
	StateAnswering State = "answering"
	// StateSubmitting is the in-flight window; all draft edits are rejected.
	StateSubmitting State = "submitting"
	// StateSubmitted carries the graded record. Terminal, save for Review.
	StateSubmitted State = "submitted"
	// StateReviewing is the read-only results view. Terminal.
	StateReviewing State = "reviewing"
)

// Attempt is the state machine for one learner's traversal of a quiz, from
// briefing through submission. Actions are serialized by the mutex; the only
// suspension point is the grading call, which happens outside the lock
// between beginAdvance and completeSubmission/failSubmission.
type Attempt struct {
	id        string
	quiz      domain.Quiz
	learner   domain.Learner
	createdAt time.Time
	now       func() time.Time

	mu      sync.Mutex
	state   State
	current int
	draft   domain.DraftAnswer
	drafts  *DraftStore
	record  *domain.ScoreRecord
}

// NewAttempt starts an attempt in the briefed state. Selection itself
// (including the completed-quiz check) happens in SessionService before an
// attempt exists.
func NewAttempt(quiz domain.Quiz, learner domain.Learner) *Attempt {
	return newAttemptWithClock(quiz, learner, time.Now)
}

// newAttemptWithClock allows deterministic timestamps in tests.
func newAttemptWithClock(quiz domain.Quiz, learner domain.Learner, now func() time.Time) *Attempt {
	return &Attempt{
		id:        uuid.NewString(),
		quiz:      quiz,
		learner:   learner,
		createdAt: now(),
		now:       now,
		state:     StateBriefed,
		drafts:    NewDraftStore(len(quiz.Questions)),
	}
}

func (a *Attempt) ID() string              { return a.id }
func (a *Attempt) QuizID() string          { return a.quiz.ID }
func (a *Attempt) Learner() domain.Learner { return a.learner }

// Acknowledge moves past the briefing to the first question's constraint
// points. Options stay hidden until RevealOptions.
func (a *Attempt) Acknowledge() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateBriefed {
		return domain.ErrInvalidTransition
	}
	a.state = StateRevealing
	a.current = 0
	return nil
}

// RevealOptions exposes the current question's options. A fresh ranking is
// derived from the option order unless a prior draft exists, in which case
// the stored draft is restored verbatim.
func (a *Attempt) RevealOptions() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateRevealing {
		return domain.ErrInvalidTransition
	}
	if stored, ok := a.drafts.Get(a.current); ok {
		a.draft = stored
	} else {
		question := a.quiz.Questions[a.current]
		a.draft = domain.DraftAnswer{
			QuestionID:   question.ID,
			QuestionText: question.Prompt,
			Ranking:      domain.NewRanking(question.Options),
		}
	}
	a.state = StateAnswering
	return nil
}

// Reorder moves one option in the working draft's ranking.
func (a *Attempt) Reorder(from, to int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateAnswering {
		return domain.ErrInvalidTransition
	}
	ranking, err := a.draft.Ranking.Reorder(from, to)
	if err != nil {
		return err
	}
	a.draft.Ranking = ranking
	a.draft.Final = false
	return nil
}

// SetJustification replaces the working draft's justification text.
func (a *Attempt) SetJustification(text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateAnswering {
		return domain.ErrInvalidTransition
	}
	a.draft.Justification = text
	a.draft.Final = false
	return nil
}

// Back returns to the previous question, restoring its stored draft
// verbatim. The current question's stored slot is left untouched.
func (a *Attempt) Back() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateAnswering || a.current == 0 {
		return domain.ErrInvalidTransition
	}
	a.current--
	// The slot is always populated here: the learner advanced past it.
	stored, ok := a.drafts.Get(a.current)
	if !ok {
		a.current++
		return domain.ErrInvalidTransition
	}
	a.draft = stored
	a.state = StateAnswering
	return nil
}

// beginAdvance validates and finalizes the working draft. On an inner
// question it moves forward (straight to answering when a stored draft
// exists, otherwise to the reveal gate). On the last question it assembles
// the submission payload exactly once and enters the submitting state; a
// concurrent advance during the in-flight window returns (nil, nil) and is
// otherwise ignored.
func (a *Attempt) beginAdvance() (*domain.SubmissionPayload, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.state {
	case StateSubmitting:
		return nil, nil
	case StateAnswering:
	default:
		return nil, domain.ErrInvalidTransition
	}

	final, err := a.draft.Finalize()
	if err != nil {
		return nil, err
	}
	a.drafts.Set(a.current, final)

	if a.current < len(a.quiz.Questions)-1 {
		a.current++
		if stored, ok := a.drafts.Get(a.current); ok {
			a.draft = stored
			a.state = StateAnswering
		} else {
			a.draft = domain.DraftAnswer{}
			a.state = StateRevealing
		}
		return nil, nil
	}

	payload := a.assemblePayloadLocked()
	a.state = StateSubmitting
	return &payload, nil
}

func (a *Attempt) assemblePayloadLocked() domain.SubmissionPayload {
	drafts := a.drafts.Finalized()
	answers := make([]domain.SubmittedAnswer, 0, len(drafts))
	for _, d := range drafts {
		answers = append(answers, domain.SubmittedAnswer{
			QuestionID:    d.QuestionID,
			QuestionText:  d.QuestionText,
			Ranking:       d.Ranking,
			Justification: d.Justification,
		})
	}
	return domain.SubmissionPayload{
		QuizID:    a.quiz.ID,
		LearnerID: a.learner.ID,
		Answers:   answers,
	}
}

// failSubmission rolls back to the last answering state. Drafts are exactly
// as they were before the submit was attempted, so a retry is safe.
func (a *Attempt) failSubmission() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateSubmitting {
		return
	}
	if stored, ok := a.drafts.Get(a.current); ok {
		a.draft = stored
	}
	a.state = StateAnswering
}

// completeSubmission records the graded outcome and enters the terminal
// submitted state.
func (a *Attempt) completeSubmission(record domain.ScoreRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateSubmitting {
		return
	}
	a.record = &record
	a.state = StateSubmitted
}

// Review moves a submitted attempt into the read-only results view.
func (a *Attempt) Review() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateSubmitted {
		return domain.ErrInvalidTransition
	}
	a.state = StateReviewing
	return nil
}

// BriefingView is the pre-attempt summary shown before the first question.
type BriefingView struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Preface      string `json:"preface,omitempty"`
	Course       string `json:"course,omitempty"`
	PassingScore int    `json:"passingScore"`
	Difficulty   string `json:"difficulty"`
	Questions    int    `json:"questions"`
}

// QuestionView is the read-only projection of the question in play. Options
// are only present through the draft once revealed.
type QuestionView struct {
	Index       int                      `json:"index"`
	Total       int                      `json:"total"`
	Prompt      string                   `json:"prompt"`
	Constraints []domain.ConstraintPoint `json:"constraints,omitempty"`
	Revealed    bool                     `json:"revealed"`
}

// Snapshot is the read-only projection consumed by the transport layer.
type Snapshot struct {
	AttemptID string              `json:"attemptId"`
	QuizID    string              `json:"quizId"`
	State     State               `json:"state"`
	Briefing  *BriefingView       `json:"briefing,omitempty"`
	Question  *QuestionView       `json:"question,omitempty"`
	Draft     *domain.DraftAnswer `json:"draft,omitempty"`
	Record    *domain.ScoreRecord `json:"record,omitempty"`
}

// Snapshot returns the current read-only view of the attempt.
func (a *Attempt) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snap := Snapshot{
		AttemptID: a.id,
		QuizID:    a.quiz.ID,
		State:     a.state,
	}

	switch a.state {
	case StateBriefed:
		snap.Briefing = briefingView(a.quiz)
	case StateRevealing, StateAnswering, StateSubmitting:
		question := a.quiz.Questions[a.current]
		snap.Question = &QuestionView{
			Index:       a.current,
			Total:       len(a.quiz.Questions),
			Prompt:      question.Prompt,
			Constraints: question.Constraints,
			Revealed:    a.state != StateRevealing,
		}
		if a.state != StateRevealing {
			draft := a.draft.Clone()
			snap.Draft = &draft
		}
	case StateSubmitted, StateReviewing:
		if a.record != nil {
			record := a.record.Clone()
			snap.Record = &record
		}
	}
	return snap
}

func briefingView(quiz domain.Quiz) *BriefingView {
	passing := quiz.PassingScore
	if passing == 0 {
		passing = 60
	}
	difficulty := quiz.Difficulty
	if difficulty == "" {
		difficulty = "Medium"
	}
	return &BriefingView{
		Title:        quiz.Title,
		Description:  quiz.Description,
		Preface:      quiz.Preface,
		Course:       quiz.Course,
		PassingScore: passing,
		Difficulty:   difficulty,
		Questions:    len(quiz.Questions),
	}
}
