package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/model"
)

// PaperTTL bounds how long a paper outlives an attempt that was never finished.
const PaperTTL = 12 * time.Hour

// RedisPaperCache stores the student-facing questions of each attempt.
type RedisPaperCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisPaperCache creates a RedisPaperCache.
func NewRedisPaperCache(rdb *redis.Client) *RedisPaperCache {
	return &RedisPaperCache{rdb: rdb, ttl: PaperTTL}
}

// Get returns the cached questions; ok is false on a miss.
func (c *RedisPaperCache) Get(ctx context.Context, sessionID uuid.UUID) ([]model.QuestionForStudent, bool, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.SessionPaperKey(sessionID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get paper: %w", err)
	}

	var questions []model.QuestionForStudent
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false, fmt.Errorf("unmarshal paper: %w", err)
	}
	return questions, true, nil
}

func (c *RedisPaperCache) Set(ctx context.Context, sessionID uuid.UUID, questions []model.QuestionForStudent) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}
	if err := c.rdb.Set(ctx, config.CacheKey.SessionPaperKey(sessionID.String()), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache paper: %w", err)
	}
	return nil
}

func (c *RedisPaperCache) Invalidate(ctx context.Context, sessionID uuid.UUID) error {
	if err := c.rdb.Del(ctx, config.CacheKey.SessionPaperKey(sessionID.String())).Err(); err != nil {
		return fmt.Errorf("invalidate paper: %w", err)
	}
	return nil
}
