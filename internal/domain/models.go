package domain

import "time"

// Option is a rankable choice presented to the learner.
type Option struct {
	Text string `json:"text"`
}

// ConstraintPoint is read-only briefing information shown before the options.
// Constraint points are informational and never scored.
type ConstraintPoint struct {
	Text string `json:"text"`
}

// Question models a ranking challenge. The correct ordering is resolved by
// the grading service and is never present on the client-facing shape.
type Question struct {
	ID          string            `json:"id"`
	Prompt      string            `json:"text"`
	Options     []Option          `json:"options"`
	Constraints []ConstraintPoint `json:"points"`
}

// Quiz is an immutable catalog entity, loaded once per attempt.
type Quiz struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Preface      string     `json:"preface,omitempty"`
	Course       string     `json:"course,omitempty"`
	PassingScore int        `json:"passingScore"` // percentage, defaults to 60 if zero
	Difficulty   string     `json:"difficulty,omitempty"`
	Questions    []Question `json:"questions"`
}

// RankedOption pairs an option text with its current 1-based rank.
type RankedOption struct {
	Text string `json:"text"`
	Rank int    `json:"rank"`
}

// DraftAnswer is the mutable per-question state of an attempt. It is created
// when the question's options are first revealed and frozen on advance.
type DraftAnswer struct {
	QuestionID    string  `json:"questionId"`
	QuestionText  string  `json:"questionText"`
	Ranking       Ranking `json:"selectedRanking"`
	Justification string  `json:"instruction"`
	Final         bool    `json:"-"`
}

// SubmittedAnswer is the immutable wire form of a finalized draft.
type SubmittedAnswer struct {
	QuestionID    string  `json:"questionId"`
	QuestionText  string  `json:"questionText"`
	Ranking       Ranking `json:"selectedRanking"`
	Justification string  `json:"instruction"`
}

// SubmissionPayload carries all finalized answers to the grading service.
// It is assembled and sent exactly once per attempt.
type SubmissionPayload struct {
	QuizID    string            `json:"quizId"`
	LearnerID string            `json:"learnerId"`
	Answers   []SubmittedAnswer `json:"answers"`
}

// QuestionResult is the graded outcome for a single question.
type QuestionResult struct {
	QuestionText     string  `json:"questionText"`
	Ranking          Ranking `json:"selectedRanking"`
	Instruction      string  `json:"instruction"`
	RankingScore     float64 `json:"rankingScore"`
	InstructionScore float64 `json:"instructionScore"`
}

// ScoreRecord is the graded outcome of one attempt. It is created once by the
// grading service and afterwards only ever extended through correction
// entries; no field is overwritten outside ApplyCorrection.
type ScoreRecord struct {
	ID          string           `json:"id"`
	QuizID      string           `json:"quizId"`
	LearnerID   string           `json:"learnerId"`
	TotalScore  float64          `json:"totalScore"`
	MaxScore    float64          `json:"maxScore"`
	Percentage  float64          `json:"percentage"`
	PerQuestion []QuestionResult `json:"answers"`
	SubmittedAt time.Time        `json:"submittedAt"`
	History     []AuditEntry     `json:"scoreEdits,omitempty"`
}

// CorrectionScope selects which score field a correction adjusts.
type CorrectionScope string

const (
	ScopeTotal       CorrectionScope = "total"
	ScopeQuestion    CorrectionScope = "question"
	ScopeInstruction CorrectionScope = "instruction"
)

// AuditEntry is one append-only correction record. Entries are never edited
// or removed; corrections of corrections append further entries.
type AuditEntry struct {
	ID            string          `json:"id"`
	Scope         CorrectionScope `json:"scope"`
	QuestionIndex int             `json:"questionIndex"` // ignored for ScopeTotal
	OldValue      float64         `json:"oldValue"`
	NewValue      float64         `json:"newValue"`
	Reason        string          `json:"reason"`
	EditedAt      time.Time       `json:"editedAt"`
	Editor        string          `json:"editor"`
}

// Learner identifies who is taking the attempt. It is threaded explicitly
// into the session layer at construction rather than read from ambient state.
type Learner struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	College     string `json:"college,omitempty"`
}
