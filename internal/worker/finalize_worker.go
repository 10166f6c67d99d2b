package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/service"
)

const (
	FinalizeBatchSize    = 50
	FinalizeBatchTimeout = 2 * time.Second
	FinalizePollTimeout  = 1 * time.Second
)

// Finalizer computes the result of a finished attempt.
type Finalizer interface {
	FinalizeSession(ctx context.Context, sessionID uuid.UUID) (*model.ExamResult, error)
}

// FinalizeWorker consumes finalize_sessions_queue and computes results for
// attempts finished in deferred mode.
type FinalizeWorker struct {
	rdb       *redis.Client
	finalizer Finalizer
	log       zerolog.Logger
}

// NewFinalizeWorker creates a new FinalizeWorker.
func NewFinalizeWorker(rdb *redis.Client, finalizer Finalizer, log zerolog.Logger) *FinalizeWorker {
	return &FinalizeWorker{
		rdb:       rdb,
		finalizer: finalizer,
		log:       log.With().Str("component", "finalize_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start runs until ctx is cancelled. Call in a goroutine.
func (w *FinalizeWorker) Start(ctx context.Context) {
	w.log.Info().Msg("FinalizeWorker started")

	batch := make([]uuid.UUID, 0, FinalizeBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= FinalizeBatchSize || time.Since(lastFlush) >= FinalizeBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, FinalizePollTimeout, config.WorkerKey.FinalizeSessionsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			id, err := uuid.Parse(item[1])
			if err != nil {
				w.log.Error().Err(err).Str("payload", item[1]).Msg("Invalid session id")
				continue
			}

			batch = append(batch, id)
		}
	}
}

// ----------------------------------------------------------------
// Batch processing
// ----------------------------------------------------------------

func (w *FinalizeWorker) flushSafe(ctx context.Context, batch []uuid.UUID) {
	if len(batch) == 0 {
		return
	}

	retry := w.process(ctx, batch)
	if len(retry) == 0 {
		return
	}

	pipe := w.rdb.Pipeline()
	for _, id := range retry {
		pipe.RPush(ctx, config.WorkerKey.FinalizeSessionsQueue, id.String())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(retry)).Msg("requeue failed")
	}
}

// process finalizes every session in the batch and returns the ids that
// should be retried. Duplicates are finalized once.
func (w *FinalizeWorker) process(ctx context.Context, batch []uuid.UUID) []uuid.UUID {
	var retry []uuid.UUID
	seen := make(map[uuid.UUID]struct{}, len(batch))

	for _, id := range batch {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		_, err := w.finalizer.FinalizeSession(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrNotFound):
			w.log.Warn().Err(err).Str("session_id", id.String()).Msg("dropping finalize job")
		case errors.Is(err, service.ErrAttemptInProgress):
			// The finish may not be visible to this connection yet.
			w.log.Warn().Str("session_id", id.String()).Msg("session not finished yet, requeueing")
			retry = append(retry, id)
		default:
			w.log.Error().Err(err).Str("session_id", id.String()).Msg("finalize failed, requeueing")
			retry = append(retry, id)
		}
	}

	return retry
}
