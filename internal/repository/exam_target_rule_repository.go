package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/exstem-engine/internal/model"
)

// ExamTargetRuleRepository answers whether a student is targeted by an exam.
type ExamTargetRuleRepository struct {
	pool *pgxpool.Pool
}

// NewExamTargetRuleRepository creates a new ExamTargetRuleRepository.
func NewExamTargetRuleRepository(pool *pgxpool.Pool) *ExamTargetRuleRepository {
	return &ExamTargetRuleRepository{pool: pool}
}

// CanTakeExam reports whether any rule of the exam targets the student's
// class. A rule with a NULL class targets every student.
func (r *ExamTargetRuleRepository) CanTakeExam(ctx context.Context, student model.Student, examID uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM exam_target_rules
		   WHERE exam_id = $1 AND (class_id IS NULL OR class_id = $2)
		 )`, examID, student.ClassID,
	).Scan(&ok)
	if err != nil {
		return false, mapErr(err)
	}
	return ok, nil
}
