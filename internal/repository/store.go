package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-engine/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("record conflicts with an existing row")
)

// ExamStore reads the authoring-owned exam catalog.
type ExamStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
}

// SessionStore persists attempts.
type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error)
	// GetOpen returns the non-finished attempt of a student, or ErrNotFound.
	GetOpen(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error)
	CountFinished(ctx context.Context, examID uuid.UUID, studentID int) (int, error)
	ListFinished(ctx context.Context, examID uuid.UUID, studentID int) ([]model.ExamSession, error)
	ListOpen(ctx context.Context) ([]model.ExamSession, error)
	Create(ctx context.Context, s *model.ExamSession) error
	SetAchievable(ctx context.Context, id uuid.UUID, total float64) error
	Finish(ctx context.Context, id uuid.UUID, finishedAt time.Time, durationSeconds int) error
	SetTotalScore(ctx context.Context, id uuid.UUID, total float64) error
	MarkCorrected(ctx context.Context, id uuid.UUID) error
}

// SnapshotStore persists the per-attempt question copies.
type SnapshotStore interface {
	CreateBatch(ctx context.Context, qs []model.ExamQuestion) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ExamQuestion, error)
	GetByNumber(ctx context.Context, sessionID uuid.UUID, number int) (*model.ExamQuestion, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.ExamQuestion, error)
}

// AnswerStore persists per-question answer records.
type AnswerStore interface {
	CreateBatch(ctx context.Context, recs []model.AnswerRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.AnswerRecord, error)
	GetByNumber(ctx context.Context, sessionID uuid.UUID, number int) (*model.AnswerRecord, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AnswerRecord, error)
	Update(ctx context.Context, rec *model.AnswerRecord) error
	SumScores(ctx context.Context, sessionID uuid.UUID) (float64, error)
}

// ResultStore persists the canonical result per (exam, student).
type ResultStore interface {
	Upsert(ctx context.Context, r *model.ExamResult) error
	GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamResult, error)
	// ListByExam returns results with student names; rank is left unset.
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.RankedResult, error)
}

// Repositories is the set of stores bound to one transaction.
type Repositories interface {
	Exams() ExamStore
	Sessions() SessionStore
	Snapshots() SnapshotStore
	Answers() AnswerStore
	Results() ResultStore
}

// Store runs units of work atomically.
type Store interface {
	WithTx(ctx context.Context, fn func(Repositories) error) error
}

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// PgStore is the PostgreSQL Store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a new PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// WithTx runs fn inside a transaction, committing only if fn returns nil.
func (s *PgStore) WithTx(ctx context.Context, fn func(Repositories) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(pgRepositories{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", mapErr(err))
	}
	return nil
}

type pgRepositories struct {
	q Querier
}

func (r pgRepositories) Exams() ExamStore { return NewExamRepository(r.q) }
func (r pgRepositories) Sessions() SessionStore { return NewExamSessionRepository(r.q) }
func (r pgRepositories) Snapshots() SnapshotStore { return NewExamQuestionRepository(r.q) }
func (r pgRepositories) Answers() AnswerStore { return NewExamResultDetailRepository(r.q) }
func (r pgRepositories) Results() ResultStore { return NewExamResultRepository(r.q) }

// mapErr translates driver errors into repository errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

// jsonArg passes an empty payload as SQL NULL.
func jsonArg(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

// expectOne turns a zero-row update into ErrNotFound.
func expectOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
