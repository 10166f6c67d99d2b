package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/exstem-engine/internal/model"
)

const sessionColumns = `id, exam_id, student_id, attempt_number, is_finished, is_corrected,
	started_at, finished_at, duration_seconds, total_score, total_achievable`

// ExamSessionRepository handles attempt data access.
type ExamSessionRepository struct {
	q Querier
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(q Querier) *ExamSessionRepository {
	return &ExamSessionRepository{q: q}
}

func scanSession(row pgx.Row) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	err := row.Scan(&s.ID, &s.ExamID, &s.StudentID, &s.AttemptNumber, &s.IsFinished, &s.IsCorrected,
		&s.StartedAt, &s.FinishedAt, &s.DurationSeconds, &s.TotalScore, &s.TotalAchievable)
	if err != nil {
		return nil, mapErr(err)
	}
	return s, nil
}

func (r *ExamSessionRepository) list(ctx context.Context, query string, args ...any) ([]model.ExamSession, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var sessions []model.ExamSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// GetByID retrieves an attempt by its UUID.
func (r *ExamSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamSession, error) {
	return scanSession(r.q.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE id = $1`, id))
}

// GetOpen retrieves the in-progress attempt for an exam-student combination.
// The row is locked so concurrent saves and finishes on it serialize.
func (r *ExamSessionRepository) GetOpen(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error) {
	return scanSession(r.q.QueryRow(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE exam_id = $1 AND student_id = $2 AND NOT is_finished
		 FOR UPDATE`, examID, studentID))
}

// CountFinished counts the finished attempts of a student.
func (r *ExamSessionRepository) CountFinished(ctx context.Context, examID uuid.UUID, studentID int) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_sessions
		 WHERE exam_id = $1 AND student_id = $2 AND is_finished`, examID, studentID,
	).Scan(&n)
	return n, mapErr(err)
}

// ListFinished lists a student's finished attempts, oldest first.
func (r *ExamSessionRepository) ListFinished(ctx context.Context, examID uuid.UUID, studentID int) ([]model.ExamSession, error) {
	return r.list(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE exam_id = $1 AND student_id = $2 AND is_finished
		 ORDER BY attempt_number ASC`, examID, studentID)
}

// ListOpen lists every in-progress attempt.
func (r *ExamSessionRepository) ListOpen(ctx context.Context) ([]model.ExamSession, error) {
	return r.list(ctx,
		`SELECT `+sessionColumns+`
		 FROM exam_sessions
		 WHERE NOT is_finished
		 ORDER BY started_at ASC`)
}

// Create inserts a new attempt. A concurrent open attempt or a duplicate
// attempt number surfaces as ErrConflict.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO exam_sessions (id, exam_id, student_id, attempt_number, started_at, total_achievable)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.ExamID, s.StudentID, s.AttemptNumber, s.StartedAt, s.TotalAchievable,
	)
	return mapErr(err)
}

// SetAchievable stores the sum of the attempt's snapshot max scores.
func (r *ExamSessionRepository) SetAchievable(ctx context.Context, id uuid.UUID, total float64) error {
	return expectOne(r.q.Exec(ctx,
		`UPDATE exam_sessions SET total_achievable = $1 WHERE id = $2`, total, id))
}

// Finish marks an in-progress attempt finished.
func (r *ExamSessionRepository) Finish(ctx context.Context, id uuid.UUID, finishedAt time.Time, durationSeconds int) error {
	return expectOne(r.q.Exec(ctx,
		`UPDATE exam_sessions
		 SET is_finished = TRUE, finished_at = $1, duration_seconds = $2
		 WHERE id = $3 AND NOT is_finished`,
		finishedAt, durationSeconds, id))
}

// SetTotalScore stores the attempt's achieved total.
func (r *ExamSessionRepository) SetTotalScore(ctx context.Context, id uuid.UUID, total float64) error {
	return expectOne(r.q.Exec(ctx,
		`UPDATE exam_sessions SET total_score = $1 WHERE id = $2`, total, id))
}

// MarkCorrected flags a finished attempt as manually corrected.
func (r *ExamSessionRepository) MarkCorrected(ctx context.Context, id uuid.UUID) error {
	return expectOne(r.q.Exec(ctx,
		`UPDATE exam_sessions SET is_corrected = TRUE WHERE id = $1 AND is_finished`, id))
}
