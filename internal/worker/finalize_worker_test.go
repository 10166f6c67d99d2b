package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/service"
)

type fakeFinalizer struct {
	errs  map[uuid.UUID]error
	calls map[uuid.UUID]int
}

func (f *fakeFinalizer) FinalizeSession(_ context.Context, id uuid.UUID) (*model.ExamResult, error) {
	f.calls[id]++
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	return &model.ExamResult{SessionID: id}, nil
}

func TestFinalizeWorker_Process(t *testing.T) {
	ok := uuid.New()
	missing := uuid.New()
	open := uuid.New()
	flaky := uuid.New()

	f := &fakeFinalizer{
		errs: map[uuid.UUID]error{
			missing: fmt.Errorf("finalize: %w", service.ErrNotFound),
			open:    service.ErrAttemptInProgress,
			flaky:   errors.New("connection reset"),
		},
		calls: make(map[uuid.UUID]int),
	}
	w := NewFinalizeWorker(nil, f, zerolog.Nop())

	retry := w.process(context.Background(), []uuid.UUID{ok, missing, open, flaky, ok})

	if len(retry) != 2 || retry[0] != open || retry[1] != flaky {
		t.Fatalf("retry = %v, want [%s %s]", retry, open, flaky)
	}
	if f.calls[ok] != 1 {
		t.Errorf("duplicate id finalized %d times, want 1", f.calls[ok])
	}
	for _, id := range []uuid.UUID{missing, open, flaky} {
		if f.calls[id] != 1 {
			t.Errorf("session %s finalized %d times, want 1", id, f.calls[id])
		}
	}
}

func TestFinalizeWorker_ProcessEmpty(t *testing.T) {
	w := NewFinalizeWorker(nil, &fakeFinalizer{calls: map[uuid.UUID]int{}}, zerolog.Nop())
	if retry := w.process(context.Background(), nil); len(retry) != 0 {
		t.Fatalf("retry = %v, want none", retry)
	}
}

type fakeSweeper struct {
	calls []time.Time
	n     int
	err   error
}

func (s *fakeSweeper) SweepExpired(_ context.Context, now time.Time) (int, error) {
	s.calls = append(s.calls, now)
	return s.n, s.err
}

func TestExpiryWorker_TickUsesClock(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := &fakeSweeper{n: 3}
	w := NewExpiryWorker(s, time.Minute, zerolog.Nop())
	w.now = func() time.Time { return now }

	w.tick(context.Background())

	if len(s.calls) != 1 || !s.calls[0].Equal(now) {
		t.Fatalf("sweep calls = %v, want one at %s", s.calls, now)
	}
}

func TestExpiryWorker_StopsOnCancel(t *testing.T) {
	s := &fakeSweeper{err: errors.New("db down")}
	w := NewExpiryWorker(s, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
