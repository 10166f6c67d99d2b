package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper finishes attempts whose time has run out.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}

// ExpiryWorker periodically finishes expired attempts so abandoned sessions
// are scored without the student returning.
type ExpiryWorker struct {
	sweeper  Sweeper
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

// NewExpiryWorker creates a new ExpiryWorker.
func NewExpiryWorker(sweeper Sweeper, interval time.Duration, log zerolog.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		sweeper:  sweeper,
		interval: interval,
		log:      log.With().Str("component", "expiry_worker").Logger(),
		now:      time.Now,
	}
}

// Start ticks until ctx is cancelled. Call in a goroutine.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("ExpiryWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ExpiryWorker stopped")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *ExpiryWorker) tick(ctx context.Context) {
	n, err := w.sweeper.SweepExpired(ctx, w.now())
	if err != nil && ctx.Err() == nil {
		w.log.Error().Err(err).Int("finished", n).Msg("sweep failed")
		return
	}
	if n > 0 {
		w.log.Info().Int("finished", n).Msg("expired attempts finished")
	}
}
