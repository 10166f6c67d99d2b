package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/repository"
)

type examStore struct{ st *state }

func (s examStore) GetByID(_ context.Context, id uuid.UUID) (*model.Exam, error) {
	e, ok := s.st.exams[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (s examStore) ListQuestions(_ context.Context, examID uuid.UUID) ([]model.Question, error) {
	qs := s.st.questions[examID]
	out := make([]model.Question, len(qs))
	copy(out, qs)
	return out, nil
}

type sessionStore struct{ st *state }

func (s sessionStore) GetByID(_ context.Context, id uuid.UUID) (*model.ExamSession, error) {
	sess, ok := s.st.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &sess, nil
}

func (s sessionStore) GetOpen(_ context.Context, examID uuid.UUID, studentID int) (*model.ExamSession, error) {
	for _, sess := range s.st.sessions {
		if sess.ExamID == examID && sess.StudentID == studentID && !sess.IsFinished {
			return &sess, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s sessionStore) ListFinished(_ context.Context, examID uuid.UUID, studentID int) ([]model.ExamSession, error) {
	var out []model.ExamSession
	for _, sess := range s.st.sessions {
		if sess.ExamID == examID && sess.StudentID == studentID && sess.IsFinished {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AttemptNumber < out[j].AttemptNumber })
	return out, nil
}

func (s sessionStore) CountFinished(ctx context.Context, examID uuid.UUID, studentID int) (int, error) {
	finished, err := s.ListFinished(ctx, examID, studentID)
	return len(finished), err
}

func (s sessionStore) ListOpen(_ context.Context) ([]model.ExamSession, error) {
	var out []model.ExamSession
	for _, sess := range s.st.sessions {
		if !sess.IsFinished {
			out = append(out, sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (s sessionStore) Create(_ context.Context, sess *model.ExamSession) error {
	if _, ok := s.st.sessions[sess.ID]; ok {
		return fmt.Errorf("%w: exam_sessions_pkey", repository.ErrConflict)
	}
	for _, other := range s.st.sessions {
		if other.ExamID != sess.ExamID || other.StudentID != sess.StudentID {
			continue
		}
		if !other.IsFinished && !sess.IsFinished {
			return fmt.Errorf("%w: exam_sessions_one_open", repository.ErrConflict)
		}
		if other.AttemptNumber == sess.AttemptNumber {
			return fmt.Errorf("%w: exam_sessions_attempt_unique", repository.ErrConflict)
		}
	}
	s.st.sessions[sess.ID] = *sess
	return nil
}

func (s sessionStore) update(id uuid.UUID, fn func(*model.ExamSession) bool) error {
	sess, ok := s.st.sessions[id]
	if !ok || !fn(&sess) {
		return repository.ErrNotFound
	}
	s.st.sessions[id] = sess
	return nil
}

func (s sessionStore) SetAchievable(_ context.Context, id uuid.UUID, total float64) error {
	return s.update(id, func(sess *model.ExamSession) bool {
		sess.TotalAchievable = total
		return true
	})
}

func (s sessionStore) Finish(_ context.Context, id uuid.UUID, finishedAt time.Time, durationSeconds int) error {
	return s.update(id, func(sess *model.ExamSession) bool {
		if sess.IsFinished {
			return false
		}
		sess.IsFinished = true
		sess.FinishedAt = &finishedAt
		sess.DurationSeconds = durationSeconds
		return true
	})
}

func (s sessionStore) SetTotalScore(_ context.Context, id uuid.UUID, total float64) error {
	return s.update(id, func(sess *model.ExamSession) bool {
		sess.TotalScore = total
		return true
	})
}

func (s sessionStore) MarkCorrected(_ context.Context, id uuid.UUID) error {
	return s.update(id, func(sess *model.ExamSession) bool {
		if !sess.IsFinished {
			return false
		}
		sess.IsCorrected = true
		return true
	})
}

type snapshotStore struct{ st *state }

func (s snapshotStore) CreateBatch(_ context.Context, qs []model.ExamQuestion) error {
	for _, q := range qs {
		if _, ok := s.st.snapshots[q.ID]; ok {
			return fmt.Errorf("%w: exam_questions_pkey", repository.ErrConflict)
		}
		s.st.snapshots[q.ID] = q
	}
	return nil
}

func (s snapshotStore) GetByID(_ context.Context, id uuid.UUID) (*model.ExamQuestion, error) {
	q, ok := s.st.snapshots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &q, nil
}

func (s snapshotStore) GetByNumber(_ context.Context, sessionID uuid.UUID, number int) (*model.ExamQuestion, error) {
	for _, q := range s.st.snapshots {
		if q.SessionID == sessionID && q.Number == number {
			return &q, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s snapshotStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.ExamQuestion, error) {
	var out []model.ExamQuestion
	for _, q := range s.st.snapshots {
		if q.SessionID == sessionID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

type answerStore struct{ st *state }

func (s answerStore) CreateBatch(_ context.Context, recs []model.AnswerRecord) error {
	for _, a := range recs {
		if _, ok := s.st.answers[a.ID]; ok {
			return fmt.Errorf("%w: exam_result_details_pkey", repository.ErrConflict)
		}
		for _, other := range s.st.answers {
			if other.SessionID == a.SessionID && other.QuestionID == a.QuestionID {
				return fmt.Errorf("%w: exam_result_details_session_question", repository.ErrConflict)
			}
		}
		s.st.answers[a.ID] = a
	}
	return nil
}

func (s answerStore) GetByID(_ context.Context, id uuid.UUID) (*model.AnswerRecord, error) {
	a, ok := s.st.answers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s answerStore) GetByNumber(_ context.Context, sessionID uuid.UUID, number int) (*model.AnswerRecord, error) {
	for _, a := range s.st.answers {
		if a.SessionID == sessionID && a.Number == number {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s answerStore) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.AnswerRecord, error) {
	var out []model.AnswerRecord
	for _, a := range s.st.answers {
		if a.SessionID == sessionID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s answerStore) Update(_ context.Context, a *model.AnswerRecord) error {
	if _, ok := s.st.answers[a.ID]; !ok {
		return repository.ErrNotFound
	}
	s.st.answers[a.ID] = *a
	return nil
}

func (s answerStore) SumScores(_ context.Context, sessionID uuid.UUID) (float64, error) {
	var total float64
	for _, a := range s.st.answers {
		if a.SessionID == sessionID {
			total += a.Score
		}
	}
	return total, nil
}

type resultStore struct{ st *state }

func (s resultStore) Upsert(_ context.Context, r *model.ExamResult) error {
	key := resultKey{examID: r.ExamID, studentID: r.StudentID}
	if prev, ok := s.st.results[key]; ok {
		r.ID = prev.ID
	} else if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.UpdatedAt = time.Now()
	s.st.results[key] = *r
	return nil
}

func (s resultStore) GetByExamAndStudent(_ context.Context, examID uuid.UUID, studentID int) (*model.ExamResult, error) {
	r, ok := s.st.results[resultKey{examID: examID, studentID: studentID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (s resultStore) ListByExam(_ context.Context, examID uuid.UUID) ([]model.RankedResult, error) {
	var out []model.RankedResult
	for key, r := range s.st.results {
		if key.examID != examID {
			continue
		}
		out = append(out, model.RankedResult{ExamResult: r, StudentName: s.st.students[r.StudentID].Name})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.ScorePercent != b.ScorePercent {
			return a.ScorePercent > b.ScorePercent
		}
		return a.StudentID < b.StudentID
	})
	return out, nil
}
