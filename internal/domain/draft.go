package domain

import (
	"fmt"
	"strings"
)

// Justification word-count bounds, inclusive on both ends.
const (
	MinJustificationWords = 20
	MaxJustificationWords = 100
)

// CountWords counts whitespace-delimited tokens after trimming.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Validate checks the draft against the finalize rules: a non-empty trimmed
// justification inside the word budget, over a complete ranking permutation.
func (d DraftAnswer) Validate() error {
	if strings.TrimSpace(d.Justification) == "" {
		return &ValidationError{Field: "justification", Reason: "must not be empty"}
	}
	words := CountWords(d.Justification)
	if words < MinJustificationWords {
		return &ValidationError{
			Field:  "justification",
			Reason: fmt.Sprintf("must be at least %d words (current: %d)", MinJustificationWords, words),
		}
	}
	if words > MaxJustificationWords {
		return &ValidationError{
			Field:  "justification",
			Reason: fmt.Sprintf("must not exceed %d words (current: %d)", MaxJustificationWords, words),
		}
	}
	if !d.Ranking.IsPermutation() {
		return &ValidationError{Field: "ranking", Reason: "must rank every option exactly once"}
	}
	return nil
}

// Finalize validates the draft and returns its frozen form with the
// justification trimmed of surrounding whitespace.
func (d DraftAnswer) Finalize() (DraftAnswer, error) {
	if err := d.Validate(); err != nil {
		return DraftAnswer{}, err
	}
	final := d.Clone()
	final.Justification = strings.TrimSpace(final.Justification)
	final.Final = true
	return final, nil
}

// Clone returns an independent copy of the draft.
func (d DraftAnswer) Clone() DraftAnswer {
	out := d
	out.Ranking = d.Ranking.Clone()
	return out
}
