package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz is absent or inactive in the catalog.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrAttemptNotFound is returned when acting on an attempt that was never started.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrScoreNotFound indicates no score record exists for the given id.
	ErrScoreNotFound = errors.New("score record not found")
	// ErrUnauthorized indicates the editor may not correct this score.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRankOutOfRange indicates a reorder index outside the option list.
	ErrRankOutOfRange = errors.New("rank index out of range")
	// ErrInvalidTransition is returned when an action is not legal in the attempt's current state.
	ErrInvalidTransition = errors.New("invalid attempt transition")
)

// ValidationError is a local, user-correctable rejection of a draft. It is
// never propagated to the grading service.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// SubmissionError wraps a grading-service failure. The attempt rolls back to
// its last answering state and the learner may retry.
type SubmissionError struct {
	Cause error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed: %v", e.Cause)
}

func (e *SubmissionError) Unwrap() error { return e.Cause }

// CorrectionError rejects an audit entry before it reaches the ledger.
type CorrectionError struct {
	Reason string
}

func (e *CorrectionError) Error() string {
	return "invalid correction: " + e.Reason
}
