package domain

import (
	"fmt"
	"strings"
)

// ApplyCorrection validates the entry and returns a new record with the
// scoped field updated and the entry appended to the history. The input
// record is never mutated; on failure it is returned unchanged alongside a
// *CorrectionError. The entry's OldValue is always rewritten from the record
// so the ledger reflects what was actually stored.
func ApplyCorrection(record ScoreRecord, entry AuditEntry) (ScoreRecord, error) {
	if strings.TrimSpace(entry.Reason) == "" {
		return record, &CorrectionError{Reason: "a reason is required"}
	}
	if entry.NewValue < 0 || entry.NewValue > 100 {
		return record, &CorrectionError{Reason: fmt.Sprintf("score %.2f must be between 0 and 100", entry.NewValue)}
	}

	entry.Reason = strings.TrimSpace(entry.Reason)
	next := record.Clone()

	switch entry.Scope {
	case ScopeTotal:
		entry.OldValue = next.TotalScore
		next.TotalScore = entry.NewValue
		if next.MaxScore > 0 {
			next.Percentage = entry.NewValue / next.MaxScore * 100
		} else {
			next.Percentage = entry.NewValue
		}
	case ScopeQuestion:
		if entry.QuestionIndex < 0 || entry.QuestionIndex >= len(next.PerQuestion) {
			return record, &CorrectionError{Reason: fmt.Sprintf("question index %d out of range", entry.QuestionIndex)}
		}
		entry.OldValue = next.PerQuestion[entry.QuestionIndex].RankingScore
		next.PerQuestion[entry.QuestionIndex].RankingScore = entry.NewValue
	case ScopeInstruction:
		if entry.QuestionIndex < 0 || entry.QuestionIndex >= len(next.PerQuestion) {
			return record, &CorrectionError{Reason: fmt.Sprintf("question index %d out of range", entry.QuestionIndex)}
		}
		entry.OldValue = next.PerQuestion[entry.QuestionIndex].InstructionScore
		next.PerQuestion[entry.QuestionIndex].InstructionScore = entry.NewValue
	default:
		return record, &CorrectionError{Reason: fmt.Sprintf("unknown scope %q", entry.Scope)}
	}

	next.History = append(next.History, entry)
	return next, nil
}

// Clone returns a deep copy of the record; the history and per-question
// slices never alias the original.
func (r ScoreRecord) Clone() ScoreRecord {
	out := r
	out.PerQuestion = make([]QuestionResult, len(r.PerQuestion))
	for i, q := range r.PerQuestion {
		q.Ranking = q.Ranking.Clone()
		out.PerQuestion[i] = q
	}
	if r.History != nil {
		out.History = make([]AuditEntry, len(r.History))
		copy(out.History, r.History)
	}
	return out
}
