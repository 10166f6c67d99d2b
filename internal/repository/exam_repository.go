package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-engine/internal/model"
)

// ExamRepository reads exams and their live questions.
type ExamRepository struct {
	q Querier
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(q Querier) *ExamRepository {
	return &ExamRepository{q: q}
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e := &model.Exam{}
	err := r.q.QueryRow(ctx,
		`SELECT id, title, duration_minutes, start_time, end_time, timer_policy,
		        max_attempts, randomize_questions, passing_score, result_policy,
		        status, access_token, created_at, updated_at
		 FROM exams WHERE id = $1`, id,
	).Scan(&e.ID, &e.Title, &e.DurationMinutes, &e.StartTime, &e.EndTime, &e.TimerPolicy,
		&e.MaxAttempts, &e.RandomizeQuestions, &e.PassingScore, &e.ResultPolicy,
		&e.Status, &e.AccessToken, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return e, nil
}

// ListQuestions returns the exam's live questions in authoring order.
func (r *ExamRepository) ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.q.Query(ctx,
		`SELECT id, exam_id, content, type, options, answer_key, max_score, difficulty, order_num
		 FROM questions
		 WHERE exam_id = $1
		 ORDER BY order_num ASC, id ASC`, examID,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.ExamID, &q.Content, &q.Type, &q.Options, &q.AnswerKey,
			&q.MaxScore, &q.Difficulty, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
