package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/exstem-engine/internal/model"
)

const answerColumns = `id, session_id, question_id, number, answer, is_correct, score,
	notes, flagged, answered_at`

// ExamResultDetailRepository handles per-question answer records.
type ExamResultDetailRepository struct {
	q Querier
}

// NewExamResultDetailRepository creates a new ExamResultDetailRepository.
func NewExamResultDetailRepository(q Querier) *ExamResultDetailRepository {
	return &ExamResultDetailRepository{q: q}
}

func scanAnswer(row pgx.Row) (*model.AnswerRecord, error) {
	a := &model.AnswerRecord{}
	err := row.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.Number, &a.Answer, &a.IsCorrect, &a.Score,
		&a.Notes, &a.Flagged, &a.AnsweredAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

// CreateBatch inserts the blank answer records of a freshly started attempt.
func (r *ExamResultDetailRepository) CreateBatch(ctx context.Context, recs []model.AnswerRecord) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(recs))
	for _, a := range recs {
		rows = append(rows, []any{a.ID, a.SessionID, a.QuestionID, a.Number, a.Score, a.Flagged})
	}
	_, err := r.q.CopyFrom(ctx,
		pgx.Identifier{"exam_result_details"},
		[]string{"id", "session_id", "question_id", "number", "score", "flagged"},
		pgx.CopyFromRows(rows),
	)
	return mapErr(err)
}

// GetByID retrieves an answer record by its UUID.
func (r *ExamResultDetailRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AnswerRecord, error) {
	return scanAnswer(r.q.QueryRow(ctx,
		`SELECT `+answerColumns+` FROM exam_result_details WHERE id = $1 FOR UPDATE`, id))
}

// GetByNumber retrieves the answer record at a given ordinal of an attempt.
func (r *ExamResultDetailRepository) GetByNumber(ctx context.Context, sessionID uuid.UUID, number int) (*model.AnswerRecord, error) {
	return scanAnswer(r.q.QueryRow(ctx,
		`SELECT `+answerColumns+`
		 FROM exam_result_details
		 WHERE session_id = $1 AND number = $2
		 FOR UPDATE`, sessionID, number))
}

// ListBySession returns an attempt's answer records in attempt order.
func (r *ExamResultDetailRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.AnswerRecord, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+answerColumns+` FROM exam_result_details WHERE session_id = $1 ORDER BY number ASC`,
		sessionID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var recs []model.AnswerRecord
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *a)
	}
	return recs, rows.Err()
}

// Update overwrites the mutable fields of an answer record.
func (r *ExamResultDetailRepository) Update(ctx context.Context, a *model.AnswerRecord) error {
	return expectOne(r.q.Exec(ctx,
		`UPDATE exam_result_details
		 SET answer = $1, is_correct = $2, score = $3, notes = $4, flagged = $5, answered_at = $6
		 WHERE id = $7`,
		jsonArg(a.Answer), a.IsCorrect, a.Score, a.Notes, a.Flagged, a.AnsweredAt, a.ID))
}

// SumScores totals the earned scores of an attempt.
func (r *ExamResultDetailRepository) SumScores(ctx context.Context, sessionID uuid.UUID) (float64, error) {
	var total float64
	err := r.q.QueryRow(ctx,
		`SELECT COALESCE(SUM(score), 0) FROM exam_result_details WHERE session_id = $1`, sessionID,
	).Scan(&total)
	return total, mapErr(err)
}
