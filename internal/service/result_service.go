package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/repository"
)

// ResultService turns finished attempts into canonical results and reads
// them back ranked.
type ResultService struct {
	store repository.Store
	log   zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(store repository.Store, log zerolog.Logger) *ResultService {
	return &ResultService{
		store: store,
		log:   log.With().Str("component", "result_service").Logger(),
	}
}

// FinalizeSession recomputes a finished attempt's total from its answer
// records and upserts the student's result. It is safe to call repeatedly.
func (s *ResultService) FinalizeSession(ctx context.Context, sessionID uuid.UUID) (*model.ExamResult, error) {
	var result *model.ExamResult
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		var err error
		_, result, err = s.finalize(ctx, r, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// finalize runs inside the caller's transaction.
func (s *ResultService) finalize(ctx context.Context, r repository.Repositories, sessionID uuid.UUID) (*model.ExamSession, *model.ExamResult, error) {
	sess, err := r.Sessions().GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("get session: %w", err)
	}
	if !sess.IsFinished {
		return nil, nil, ErrAttemptInProgress
	}

	exam, err := r.Exams().GetByID(ctx, sess.ExamID)
	if err != nil {
		return nil, nil, fmt.Errorf("get exam: %w", err)
	}

	total, err := r.Answers().SumScores(ctx, sess.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("sum scores: %w", err)
	}
	if err := r.Sessions().SetTotalScore(ctx, sess.ID, total); err != nil {
		return nil, nil, fmt.Errorf("set total score: %w", err)
	}
	sess.TotalScore = total

	finished, err := r.Sessions().ListFinished(ctx, sess.ExamID, sess.StudentID)
	if err != nil {
		return nil, nil, fmt.Errorf("list finished sessions: %w", err)
	}
	chosen := SelectorFor(exam.ResultPolicy).Select(*sess, finished)

	percent := scorePercent(chosen.TotalScore, chosen.TotalAchievable)
	result := &model.ExamResult{
		ExamID:       sess.ExamID,
		StudentID:    sess.StudentID,
		SessionID:    chosen.ID,
		TotalScore:   chosen.TotalScore,
		ScorePercent: percent,
		IsPassed:     percent >= exam.PassingScore,
	}
	if err := r.Results().Upsert(ctx, result); err != nil {
		return nil, nil, fmt.Errorf("upsert result: %w", err)
	}

	s.log.Info().
		Str("exam_id", sess.ExamID.String()).
		Int("student_id", sess.StudentID).
		Str("session_id", sess.ID.String()).
		Str("result_session_id", chosen.ID.String()).
		Float64("total_score", result.TotalScore).
		Float64("score_percent", result.ScorePercent).
		Msg("session finalized")

	return sess, result, nil
}

// ListResults returns every result of an exam, ranked.
func (s *ResultService) ListResults(ctx context.Context, examID uuid.UUID) ([]model.RankedResult, error) {
	var results []model.RankedResult
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		if _, err := r.Exams().GetByID(ctx, examID); err != nil {
			return fmt.Errorf("get exam: %w", err)
		}
		var err error
		results, err = r.Results().ListByExam(ctx, examID)
		return err
	})
	if err != nil {
		return nil, err
	}
	RankAll(results)
	return results, nil
}

// GetStudentResult returns a student's own result with its rank.
func (s *ResultService) GetStudentResult(ctx context.Context, examID uuid.UUID, studentID int) (*model.RankedResult, error) {
	results, err := s.ListResults(ctx, examID)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if results[i].StudentID == studentID {
			return &results[i], nil
		}
	}
	return nil, ErrNotFound
}
