package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/repository"
	"github.com/stemsi/exstem-engine/internal/scoring"
)

// ExamSessionService drives an attempt from start to finish.
type ExamSessionService struct {
	store   repository.Store
	results *ResultService
	cache   PaperCache
	queue   FinalizeQueue
	log     zerolog.Logger
	shuffle func([]model.Question)
}

// NewExamSessionService creates a new ExamSessionService. A nil queue
// finalizes attempts inside the finish transaction; a nil cache disables
// paper caching.
func NewExamSessionService(
	store repository.Store,
	results *ResultService,
	cache PaperCache,
	queue FinalizeQueue,
	log zerolog.Logger,
) *ExamSessionService {
	if cache == nil {
		cache = noPaperCache{}
	}
	return &ExamSessionService{
		store:   store,
		results: results,
		cache:   cache,
		queue:   queue,
		log:     log.With().Str("component", "exam_session_service").Logger(),
		shuffle: func(qs []model.Question) {
			rand.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
		},
	}
}

// StartAttemptInput carries the caller's request to start an exam.
type StartAttemptInput struct {
	ExamID      uuid.UUID
	Student     model.Student
	HasAccess   bool
	AccessToken string
	Now         time.Time
}

// StartAttempt opens a new attempt or resumes the open one. The attempt, its
// question snapshots and its blank answer records are created atomically.
func (s *ExamSessionService) StartAttempt(ctx context.Context, in StartAttemptInput) (*model.ExamSession, error) {
	sess, resumed, err := s.startOnce(ctx, in)
	if errors.Is(err, repository.ErrConflict) {
		// A concurrent start won the unique index; its attempt is now resumable.
		sess, resumed, err = s.startOnce(ctx, in)
	}
	if err != nil {
		return nil, err
	}

	msg := "attempt started"
	if resumed {
		msg = "attempt resumed"
	}
	s.log.Info().
		Str("exam_id", sess.ExamID.String()).
		Int("student_id", sess.StudentID).
		Str("session_id", sess.ID.String()).
		Int("attempt", sess.AttemptNumber).
		Msg(msg)

	return sess, nil
}

func (s *ExamSessionService) startOnce(ctx context.Context, in StartAttemptInput) (*model.ExamSession, bool, error) {
	var (
		sess    *model.ExamSession
		resumed bool
	)
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		exam, err := r.Exams().GetByID(ctx, in.ExamID)
		if err != nil {
			return fmt.Errorf("get exam: %w", err)
		}
		if !exam.IsPublished() || !in.HasAccess {
			return ErrExamNotAvailable
		}
		if !exam.WithinWindow(in.Now) {
			return ErrTimeWindowClosed
		}
		if exam.AccessToken != "" && in.AccessToken != exam.AccessToken {
			return ErrInvalidToken
		}

		open, err := r.Sessions().GetOpen(ctx, exam.ID, in.Student.ID)
		switch {
		case err == nil:
			sess, resumed = open, true
			return nil
		case !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("get open session: %w", err)
		}

		finished, err := r.Sessions().CountFinished(ctx, exam.ID, in.Student.ID)
		if err != nil {
			return fmt.Errorf("count finished sessions: %w", err)
		}
		if exam.MaxAttempts != nil && finished >= *exam.MaxAttempts {
			return ErrMaxAttemptsReached
		}

		questions, err := r.Exams().ListQuestions(ctx, exam.ID)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		if exam.RandomizeQuestions {
			s.shuffle(questions)
		}

		sess = &model.ExamSession{
			ID:            uuid.New(),
			ExamID:        exam.ID,
			StudentID:     in.Student.ID,
			AttemptNumber: finished + 1,
			StartedAt:     in.Now,
		}
		if err := r.Sessions().Create(ctx, sess); err != nil {
			return fmt.Errorf("create session: %w", err)
		}

		snapshots, answers, achievable := buildSnapshot(sess.ID, questions)
		if err := r.Snapshots().CreateBatch(ctx, snapshots); err != nil {
			return fmt.Errorf("create snapshots: %w", err)
		}
		if err := r.Answers().CreateBatch(ctx, answers); err != nil {
			return fmt.Errorf("create answer records: %w", err)
		}
		if err := r.Sessions().SetAchievable(ctx, sess.ID, achievable); err != nil {
			return fmt.Errorf("set achievable: %w", err)
		}
		sess.TotalAchievable = achievable
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return sess, resumed, nil
}

// buildSnapshot copies the live questions, in the given order, into the
// attempt together with one blank answer record per copy.
func buildSnapshot(sessionID uuid.UUID, questions []model.Question) ([]model.ExamQuestion, []model.AnswerRecord, float64) {
	snapshots := make([]model.ExamQuestion, 0, len(questions))
	answers := make([]model.AnswerRecord, 0, len(questions))
	var achievable float64

	for i, q := range questions {
		snap := model.ExamQuestion{
			ID:               uuid.New(),
			SessionID:        sessionID,
			SourceQuestionID: q.ID,
			Number:           i + 1,
			Content:          q.Content,
			Type:             q.Type,
			Options:          q.Options,
			AnswerKey:        q.AnswerKey,
			MaxScore:         q.MaxScore,
			Difficulty:       q.Difficulty,
		}
		snapshots = append(snapshots, snap)
		answers = append(answers, model.AnswerRecord{
			ID:         uuid.New(),
			SessionID:  sessionID,
			QuestionID: snap.ID,
			Number:     snap.Number,
		})
		achievable += q.MaxScore
	}
	return snapshots, answers, achievable
}

// SaveAnswerInput carries one answer submission.
type SaveAnswerInput struct {
	ExamID    uuid.UUID
	StudentID int
	Number    int
	Answer    json.RawMessage
	Flagged   bool
	Now       time.Time
}

// SaveAnswer overwrites the answer to one question of the open attempt and
// scores it immediately. Essay grades set by a human are kept unless the
// answer is cleared.
func (s *ExamSessionService) SaveAnswer(ctx context.Context, in SaveAnswerInput) (*model.AnswerRecord, error) {
	if raw := strings.TrimSpace(string(in.Answer)); raw != "" && !json.Valid([]byte(raw)) {
		return nil, fmt.Errorf("%w: answer is not valid JSON", ErrValidationFailed)
	}

	var rec *model.AnswerRecord
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		sess, exam, err := openAttempt(ctx, r, in.ExamID, in.StudentID)
		if err != nil {
			return err
		}
		if Expired(sess, exam, in.Now) {
			return ErrTimeWindowClosed
		}

		q, err := r.Snapshots().GetByNumber(ctx, sess.ID, in.Number)
		if err != nil {
			return fmt.Errorf("get question %d: %w", in.Number, err)
		}
		ans, err := scoring.ParseAnswerFor(q.Type, in.Answer)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		if !scoring.Accepts(q.Type, ans) {
			return fmt.Errorf("%w: answer shape does not fit %s", ErrValidationFailed, q.Type)
		}

		rec, err = r.Answers().GetByNumber(ctx, sess.ID, in.Number)
		if err != nil {
			return fmt.Errorf("get answer %d: %w", in.Number, err)
		}
		if err := applyAnswer(rec, q, ans, in); err != nil {
			return err
		}
		return r.Answers().Update(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func applyAnswer(rec *model.AnswerRecord, q *model.ExamQuestion, ans *scoring.Answer, in SaveAnswerInput) error {
	rec.Answer = nil
	if ans != nil {
		canonical, err := json.Marshal(ans)
		if err != nil {
			return fmt.Errorf("encode answer: %w", err)
		}
		rec.Answer = canonical
	}
	rec.Flagged = in.Flagged
	now := in.Now
	rec.AnsweredAt = &now

	// A cleared essay goes back to ungraded.
	if ans == nil && q.Type == model.QuestionTypeEssay {
		rec.Score = 0
		rec.IsCorrect = nil
		return nil
	}

	res := scoring.ScoreQuestion(q, ans)
	if !res.Manual {
		rec.Score = res.Score
		rec.IsCorrect = res.Correct
	}
	return nil
}

// openAttempt loads the caller's in-progress attempt and its exam.
func openAttempt(ctx context.Context, r repository.Repositories, examID uuid.UUID, studentID int) (*model.ExamSession, *model.Exam, error) {
	sess, err := r.Sessions().GetOpen(ctx, examID, studentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get open session: %w", err)
	}
	exam, err := r.Exams().GetByID(ctx, examID)
	if err != nil {
		return nil, nil, fmt.Errorf("get exam: %w", err)
	}
	return sess, exam, nil
}

// TimeState is the countdown of an open attempt.
type TimeState struct {
	SessionID        uuid.UUID         `json:"session_id"`
	RemainingSeconds int               `json:"remaining_seconds"`
	Deadline         time.Time         `json:"deadline"`
	TimerPolicy      model.TimerPolicy `json:"timer_policy"`
}

// GetRemainingTime returns the countdown of the caller's open attempt.
func (s *ExamSessionService) GetRemainingTime(ctx context.Context, examID uuid.UUID, studentID int, now time.Time) (*TimeState, error) {
	var state *TimeState
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		sess, exam, err := openAttempt(ctx, r, examID, studentID)
		if err != nil {
			return err
		}
		state = &TimeState{
			SessionID:        sess.ID,
			RemainingSeconds: RemainingSeconds(sess, exam, now),
			Deadline:         Deadline(sess, exam),
			TimerPolicy:      exam.TimerPolicy,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// FinishOutcome is the state after a finish. Result is nil when finalization
// was deferred to the worker.
type FinishOutcome struct {
	Session *model.ExamSession `json:"session"`
	Result  *model.ExamResult  `json:"result,omitempty"`
}

// FinishAttempt closes the caller's open attempt at finishedAt and finalizes
// it, either in the same transaction or by enqueueing it for the worker once
// the finish has committed.
func (s *ExamSessionService) FinishAttempt(ctx context.Context, examID uuid.UUID, studentID int, finishedAt time.Time) (*FinishOutcome, error) {
	out := &FinishOutcome{}
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		sess, err := r.Sessions().GetOpen(ctx, examID, studentID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoActiveSession
		}
		if err != nil {
			return fmt.Errorf("get open session: %w", err)
		}

		duration := int(finishedAt.Sub(sess.StartedAt) / time.Second)
		if duration < 0 {
			duration = 0
		}
		if err := r.Sessions().Finish(ctx, sess.ID, finishedAt, duration); err != nil {
			return fmt.Errorf("finish session: %w", err)
		}
		sess.IsFinished = true
		sess.FinishedAt = &finishedAt
		sess.DurationSeconds = duration
		out.Session = sess

		if s.queue != nil {
			return nil
		}

		finalized, result, err := s.results.finalize(ctx, r, sess.ID)
		if err != nil {
			return err
		}
		out.Session = finalized
		out.Result = result
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.queue != nil {
		if err := s.enqueueFinalize(ctx, out); err != nil {
			return nil, err
		}
	}

	if err := s.cache.Invalidate(ctx, out.Session.ID); err != nil {
		s.log.Warn().Err(err).Str("session_id", out.Session.ID.String()).Msg("paper cache invalidation failed")
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Int("student_id", studentID).
		Str("session_id", out.Session.ID.String()).
		Int("duration_seconds", out.Session.DurationSeconds).
		Bool("deferred", out.Result == nil).
		Msg("attempt finished")

	return out, nil
}

// enqueueFinalize hands a committed finish to the worker. When the queue is
// unavailable the session is finalized here instead.
func (s *ExamSessionService) enqueueFinalize(ctx context.Context, out *FinishOutcome) error {
	err := s.queue.Enqueue(ctx, out.Session.ID)
	if err == nil {
		return nil
	}
	s.log.Warn().Err(err).Str("session_id", out.Session.ID.String()).Msg("finalize enqueue failed, finalizing inline")

	result, err := s.results.FinalizeSession(ctx, out.Session.ID)
	if err != nil {
		return fmt.Errorf("finalize session %s: %w", out.Session.ID, err)
	}
	out.Result = result
	return nil
}

// PaperAnswer is a student's own saved answer, without grading.
type PaperAnswer struct {
	Number     int             `json:"number"`
	Answer     json.RawMessage `json:"answer,omitempty"`
	Flagged    bool            `json:"flagged"`
	AnsweredAt *time.Time      `json:"answered_at,omitempty"`
}

// Paper is the student-facing view of an open attempt. It never carries
// answer keys or scores.
type Paper struct {
	SessionID        uuid.UUID                  `json:"session_id"`
	ExamID           uuid.UUID                  `json:"exam_id"`
	Title            string                     `json:"title"`
	AttemptNumber    int                        `json:"attempt_number"`
	RemainingSeconds int                        `json:"remaining_seconds"`
	Questions        []model.QuestionForStudent `json:"questions"`
	Answers          []PaperAnswer              `json:"answers"`
}

// GetPaper returns the question paper of the caller's open attempt.
func (s *ExamSessionService) GetPaper(ctx context.Context, examID uuid.UUID, studentID int, now time.Time) (*Paper, error) {
	var (
		paper  *Paper
		cached bool
	)
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		sess, exam, err := openAttempt(ctx, r, examID, studentID)
		if err != nil {
			return err
		}
		paper = &Paper{
			SessionID:        sess.ID,
			ExamID:           exam.ID,
			Title:            exam.Title,
			AttemptNumber:    sess.AttemptNumber,
			RemainingSeconds: RemainingSeconds(sess, exam, now),
		}

		questions, hit, err := s.cache.Get(ctx, sess.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("session_id", sess.ID.String()).Msg("paper cache read failed")
		}
		if hit {
			cached = true
			paper.Questions = questions
		} else {
			snapshots, err := r.Snapshots().ListBySession(ctx, sess.ID)
			if err != nil {
				return fmt.Errorf("list snapshots: %w", err)
			}
			paper.Questions = make([]model.QuestionForStudent, 0, len(snapshots))
			for i := range snapshots {
				paper.Questions = append(paper.Questions, snapshots[i].ForStudent())
			}
		}

		records, err := r.Answers().ListBySession(ctx, sess.ID)
		if err != nil {
			return fmt.Errorf("list answers: %w", err)
		}
		paper.Answers = make([]PaperAnswer, 0, len(records))
		for _, a := range records {
			paper.Answers = append(paper.Answers, PaperAnswer{
				Number:     a.Number,
				Answer:     a.Answer,
				Flagged:    a.Flagged,
				AnsweredAt: a.AnsweredAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !cached {
		if err := s.cache.Set(ctx, paper.SessionID, paper.Questions); err != nil {
			s.log.Warn().Err(err).Str("session_id", paper.SessionID.String()).Msg("paper cache write failed")
		}
	}
	return paper, nil
}

// SweepExpired finishes every open attempt whose deadline has passed,
// stamping each with its deadline, or with now when the deadline is still
// under a second away. It returns the number finished.
func (s *ExamSessionService) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	type expiredAttempt struct {
		examID    uuid.UUID
		studentID int
		deadline  time.Time
	}

	var expired []expiredAttempt
	err := s.store.WithTx(ctx, func(r repository.Repositories) error {
		open, err := r.Sessions().ListOpen(ctx)
		if err != nil {
			return fmt.Errorf("list open sessions: %w", err)
		}
		exams := make(map[uuid.UUID]*model.Exam)
		for i := range open {
			sess := &open[i]
			exam, ok := exams[sess.ExamID]
			if !ok {
				if exam, err = r.Exams().GetByID(ctx, sess.ExamID); err != nil {
					return fmt.Errorf("get exam: %w", err)
				}
				exams[sess.ExamID] = exam
			}
			if Expired(sess, exam, now) {
				stamp := Deadline(sess, exam)
				if stamp.After(now) {
					stamp = now
				}
				expired = append(expired, expiredAttempt{sess.ExamID, sess.StudentID, stamp})
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	finished := 0
	for _, e := range expired {
		if _, err := s.FinishAttempt(ctx, e.examID, e.studentID, e.deadline); err != nil {
			if errors.Is(err, ErrNoActiveSession) {
				continue
			}
			s.log.Error().Err(err).
				Str("exam_id", e.examID.String()).
				Int("student_id", e.studentID).
				Msg("failed to finish expired attempt")
			continue
		}
		finished++
	}
	return finished, nil
}
