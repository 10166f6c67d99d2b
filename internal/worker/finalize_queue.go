package worker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-engine/internal/config"
)

// RedisFinalizeQueue pushes finished session ids for the FinalizeWorker.
type RedisFinalizeQueue struct {
	rdb *redis.Client
}

// NewRedisFinalizeQueue creates a RedisFinalizeQueue.
func NewRedisFinalizeQueue(rdb *redis.Client) *RedisFinalizeQueue {
	return &RedisFinalizeQueue{rdb: rdb}
}

func (q *RedisFinalizeQueue) Enqueue(ctx context.Context, sessionID uuid.UUID) error {
	if err := q.rdb.RPush(ctx, config.WorkerKey.FinalizeSessionsQueue, sessionID.String()).Err(); err != nil {
		return fmt.Errorf("enqueue finalize: %w", err)
	}
	return nil
}
