package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/repository"
)

// GradingService serves graders: the keyed view of an attempt and manual
// corrections.
type GradingService struct {
	store   repository.Store
	results *ResultService
	log     zerolog.Logger
}

// NewGradingService creates a new GradingService.
func NewGradingService(store repository.Store, results *ResultService, log zerolog.Logger) *GradingService {
	return &GradingService{
		store:   store,
		results: results,
		log:     log.With().Str("component", "grading_service").Logger(),
	}
}

// GradingView is an attempt with its answer keys and graded answers.
type GradingView struct {
	Session   *model.ExamSession   `json:"session"`
	Status    model.SessionStatus  `json:"status"`
	Questions []model.ExamQuestion `json:"questions"`
	Answers   []model.AnswerRecord `json:"answers"`
}

// GetGradingView returns the attempt with answer keys included.
func (s *GradingService) GetGradingView(ctx context.Context, sessionID uuid.UUID) (*GradingView, error) {
	view := &GradingView{}
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		sess, err := r.Sessions().GetByID(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		view.Session = sess
		view.Status = sess.Status()

		if view.Questions, err = r.Snapshots().ListBySession(ctx, sessionID); err != nil {
			return fmt.Errorf("list snapshots: %w", err)
		}
		if view.Answers, err = r.Answers().ListBySession(ctx, sessionID); err != nil {
			return fmt.Errorf("list answers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// CorrectAnswerInput is a grader's score for one answer.
type CorrectAnswerInput struct {
	SessionID uuid.UUID
	AnswerID  uuid.UUID
	Score     float64
	// IsCorrect defaults to whether Score reaches the question maximum.
	IsCorrect *bool
	Notes     *string
}

// CorrectionOutcome is the corrected answer and the refreshed result.
type CorrectionOutcome struct {
	Answer  *model.AnswerRecord `json:"answer"`
	Session *model.ExamSession  `json:"session"`
	Result  *model.ExamResult   `json:"result"`
}

// CorrectAnswer overrides the grade of one answer of a finished attempt,
// marks the attempt corrected and re-finalizes it.
func (s *GradingService) CorrectAnswer(ctx context.Context, in CorrectAnswerInput) (*CorrectionOutcome, error) {
	if in.Score < 0 {
		return nil, fmt.Errorf("%w: score must not be negative", ErrValidationFailed)
	}

	out := &CorrectionOutcome{}
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		sess, err := r.Sessions().GetByID(ctx, in.SessionID)
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}
		if !sess.IsFinished {
			return ErrAttemptInProgress
		}

		rec, err := r.Answers().GetByID(ctx, in.AnswerID)
		if err != nil {
			return fmt.Errorf("get answer: %w", err)
		}
		if rec.SessionID != sess.ID {
			return fmt.Errorf("answer %s: %w", in.AnswerID, ErrNotFound)
		}

		q, err := r.Snapshots().GetByID(ctx, rec.QuestionID)
		if err != nil {
			return fmt.Errorf("get question: %w", err)
		}
		if in.Score > q.MaxScore {
			return ErrScoreExceedsMaximum
		}

		correct := in.IsCorrect
		if correct == nil {
			full := q.MaxScore > 0 && in.Score == q.MaxScore
			correct = &full
		}
		rec.Score = in.Score
		rec.IsCorrect = correct
		rec.Notes = in.Notes
		if err := r.Answers().Update(ctx, rec); err != nil {
			return fmt.Errorf("update answer: %w", err)
		}
		if err := r.Sessions().MarkCorrected(ctx, sess.ID); err != nil {
			return fmt.Errorf("mark corrected: %w", err)
		}

		finalized, result, err := s.results.finalize(ctx, r, sess.ID)
		if err != nil {
			return err
		}
		finalized.IsCorrected = true
		out.Answer, out.Session, out.Result = rec, finalized, result
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("session_id", in.SessionID.String()).
		Str("answer_id", in.AnswerID.String()).
		Float64("score", in.Score).
		Float64("total_score", out.Session.TotalScore).
		Msg("answer corrected")

	return out, nil
}
