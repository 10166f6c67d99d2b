package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-engine/internal/model"
)

// ExamResultRepository handles the canonical per-student exam results.
type ExamResultRepository struct {
	q Querier
}

// NewExamResultRepository creates a new ExamResultRepository.
func NewExamResultRepository(q Querier) *ExamResultRepository {
	return &ExamResultRepository{q: q}
}

// Upsert creates or overwrites the result of (exam, student).
func (r *ExamResultRepository) Upsert(ctx context.Context, res *model.ExamResult) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	err := r.q.QueryRow(ctx,
		`INSERT INTO exam_results (id, exam_id, student_id, session_id, total_score, score_percent, is_passed, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		 ON CONFLICT (exam_id, student_id) DO UPDATE
		 SET session_id = EXCLUDED.session_id,
		     total_score = EXCLUDED.total_score,
		     score_percent = EXCLUDED.score_percent,
		     is_passed = EXCLUDED.is_passed,
		     updated_at = NOW()
		 RETURNING id, updated_at`,
		res.ID, res.ExamID, res.StudentID, res.SessionID, res.TotalScore, res.ScorePercent, res.IsPassed,
	).Scan(&res.ID, &res.UpdatedAt)
	return mapErr(err)
}

// GetByExamAndStudent retrieves the result of a student for an exam.
func (r *ExamResultRepository) GetByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamResult, error) {
	res := &model.ExamResult{}
	err := r.q.QueryRow(ctx,
		`SELECT id, exam_id, student_id, session_id, total_score, score_percent, is_passed, updated_at
		 FROM exam_results
		 WHERE exam_id = $1 AND student_id = $2`, examID, studentID,
	).Scan(&res.ID, &res.ExamID, &res.StudentID, &res.SessionID, &res.TotalScore,
		&res.ScorePercent, &res.IsPassed, &res.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return res, nil
}

// ListByExam returns every result of an exam, best first, with student names.
func (r *ExamResultRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.RankedResult, error) {
	rows, err := r.q.Query(ctx,
		`SELECT er.id, er.exam_id, er.student_id, er.session_id, er.total_score,
		        er.score_percent, er.is_passed, er.updated_at, COALESCE(s.name, '')
		 FROM exam_results er
		 LEFT JOIN students s ON s.id = er.student_id
		 WHERE er.exam_id = $1
		 ORDER BY er.total_score DESC, er.score_percent DESC, er.student_id ASC`, examID,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var results []model.RankedResult
	for rows.Next() {
		var rr model.RankedResult
		if err := rows.Scan(&rr.ID, &rr.ExamID, &rr.StudentID, &rr.SessionID, &rr.TotalScore,
			&rr.ScorePercent, &rr.IsPassed, &rr.UpdatedAt, &rr.StudentName); err != nil {
			return nil, err
		}
		results = append(results, rr)
	}
	return results, rows.Err()
}
