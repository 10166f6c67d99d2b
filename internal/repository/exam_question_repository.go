package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/exstem-engine/internal/model"
)

const snapshotColumns = `id, session_id, source_question_id, number, content, type,
	options, answer_key, max_score, difficulty`

// ExamQuestionRepository handles per-attempt question snapshots.
type ExamQuestionRepository struct {
	q Querier
}

// NewExamQuestionRepository creates a new ExamQuestionRepository.
func NewExamQuestionRepository(q Querier) *ExamQuestionRepository {
	return &ExamQuestionRepository{q: q}
}

func scanSnapshot(row pgx.Row) (*model.ExamQuestion, error) {
	q := &model.ExamQuestion{}
	err := row.Scan(&q.ID, &q.SessionID, &q.SourceQuestionID, &q.Number, &q.Content, &q.Type,
		&q.Options, &q.AnswerKey, &q.MaxScore, &q.Difficulty)
	if err != nil {
		return nil, mapErr(err)
	}
	return q, nil
}

// CreateBatch copies all snapshots of an attempt in one round trip.
func (r *ExamQuestionRepository) CreateBatch(ctx context.Context, qs []model.ExamQuestion) error {
	if len(qs) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(qs))
	for _, q := range qs {
		rows = append(rows, []any{
			q.ID, q.SessionID, q.SourceQuestionID, q.Number, q.Content, string(q.Type),
			jsonArg(q.Options), jsonArg(q.AnswerKey), q.MaxScore, string(q.Difficulty),
		})
	}
	_, err := r.q.CopyFrom(ctx,
		pgx.Identifier{"exam_questions"},
		[]string{"id", "session_id", "source_question_id", "number", "content", "type",
			"options", "answer_key", "max_score", "difficulty"},
		pgx.CopyFromRows(rows),
	)
	return mapErr(err)
}

// GetByID retrieves a snapshot by its UUID.
func (r *ExamQuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ExamQuestion, error) {
	return scanSnapshot(r.q.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM exam_questions WHERE id = $1`, id))
}

// GetByNumber retrieves the snapshot at a given ordinal of an attempt.
func (r *ExamQuestionRepository) GetByNumber(ctx context.Context, sessionID uuid.UUID, number int) (*model.ExamQuestion, error) {
	return scanSnapshot(r.q.QueryRow(ctx,
		`SELECT `+snapshotColumns+` FROM exam_questions WHERE session_id = $1 AND number = $2`,
		sessionID, number))
}

// ListBySession returns an attempt's snapshots in attempt order.
func (r *ExamQuestionRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.ExamQuestion, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+snapshotColumns+` FROM exam_questions WHERE session_id = $1 ORDER BY number ASC`,
		sessionID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var qs []model.ExamQuestion
	for rows.Next() {
		q, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		qs = append(qs, *q)
	}
	return qs, rows.Err()
}
