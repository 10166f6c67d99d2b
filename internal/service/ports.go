package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-engine/internal/model"
)

// AccessChecker decides whether a student may take an exam.
type AccessChecker interface {
	CanTakeExam(ctx context.Context, student model.Student, examID uuid.UUID) (bool, error)
}

// FinalizeQueue defers finalization of finished attempts to a worker.
type FinalizeQueue interface {
	Enqueue(ctx context.Context, sessionID uuid.UUID) error
}

// PaperCache holds the student-facing questions of an attempt. Snapshots are
// immutable, so entries only need dropping when the attempt ends.
type PaperCache interface {
	Get(ctx context.Context, sessionID uuid.UUID) ([]model.QuestionForStudent, bool, error)
	Set(ctx context.Context, sessionID uuid.UUID, questions []model.QuestionForStudent) error
	Invalidate(ctx context.Context, sessionID uuid.UUID) error
}

type noPaperCache struct{}

func (noPaperCache) Get(context.Context, uuid.UUID) ([]model.QuestionForStudent, bool, error) {
	return nil, false, nil
}

func (noPaperCache) Set(context.Context, uuid.UUID, []model.QuestionForStudent) error { return nil }

func (noPaperCache) Invalidate(context.Context, uuid.UUID) error { return nil }
