package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"ranking-session-service/internal/app"
	"ranking-session-service/internal/domain"
)

// ScoreCache fronts a backing ScoreStore with a Redis completion flag, the
// hot lookup on every quiz selection. Everything else passes through:
// records and their ledgers are read fresh from the backing store so a
// correction is never applied over a cached record.
// Flags are stored as: SET completed:{quizID}:{learnerID} {scoreID} EX ttl.
type ScoreCache struct {
	client  *redis.Client
	backing app.ScoreStore
	ttl     time.Duration
}

func NewScoreCache(client *redis.Client, backing app.ScoreStore, ttl time.Duration) *ScoreCache {
	return &ScoreCache{client: client, backing: backing, ttl: ttl}
}

func (c *ScoreCache) Completed(ctx context.Context, quizID, learnerID string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(quizID, learnerID)).Result()
	if err == nil && n > 0 {
		return true, nil
	}
	done, err := c.backing.Completed(ctx, quizID, learnerID)
	if err != nil {
		return false, err
	}
	if done {
		_ = c.client.Set(ctx, c.key(quizID, learnerID), "1", c.ttl).Err()
	}
	return done, nil
}

func (c *ScoreCache) Save(ctx context.Context, record domain.ScoreRecord) error {
	if err := c.backing.Save(ctx, record); err != nil {
		return err
	}
	_ = c.client.Set(ctx, c.key(record.QuizID, record.LearnerID), record.ID, c.ttl).Err()
	return nil
}

func (c *ScoreCache) Get(ctx context.Context, scoreID string) (domain.ScoreRecord, error) {
	return c.backing.Get(ctx, scoreID)
}

func (c *ScoreCache) Find(ctx context.Context, quizID, learnerID string) (domain.ScoreRecord, error) {
	return c.backing.Find(ctx, quizID, learnerID)
}

func (c *ScoreCache) ForLearner(ctx context.Context, learnerID string) ([]domain.ScoreRecord, error) {
	return c.backing.ForLearner(ctx, learnerID)
}

func (c *ScoreCache) ApplyCorrection(ctx context.Context, scoreID string, entry domain.AuditEntry) (domain.ScoreRecord, error) {
	return c.backing.ApplyCorrection(ctx, scoreID, entry)
}

func (c *ScoreCache) key(quizID, learnerID string) string {
	return "completed:" + quizID + ":" + learnerID
}
