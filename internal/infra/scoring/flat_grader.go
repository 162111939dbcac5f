package scoring

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ranking-session-service/internal/domain"
)

// FlatGrader is a stand-in for the real grading service: every answer gets
// the same configured score. Used for demos and tests when no grading
// endpoint is wired.
type FlatGrader struct {
	Score float64
}

func (g FlatGrader) Submit(_ context.Context, payload domain.SubmissionPayload) (domain.ScoreRecord, error) {
	perQuestion := make([]domain.QuestionResult, 0, len(payload.Answers))
	for _, answer := range payload.Answers {
		perQuestion = append(perQuestion, domain.QuestionResult{
			QuestionText:     answer.QuestionText,
			Ranking:          answer.Ranking,
			Instruction:      answer.Justification,
			RankingScore:     g.Score,
			InstructionScore: g.Score,
		})
	}
	return domain.ScoreRecord{
		ID:          uuid.NewString(),
		QuizID:      payload.QuizID,
		LearnerID:   payload.LearnerID,
		TotalScore:  g.Score,
		MaxScore:    100,
		Percentage:  g.Score,
		PerQuestion: perQuestion,
		SubmittedAt: time.Now(),
	}, nil
}
