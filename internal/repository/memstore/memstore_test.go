package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/repository"
)

func newSession(examID uuid.UUID, studentID, attempt int) *model.ExamSession {
	return &model.ExamSession{
		ID:            uuid.New(),
		ExamID:        examID,
		StudentID:     studentID,
		AttemptNumber: attempt,
		StartedAt:     time.Now(),
	}
}

func TestWithTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	st := New()
	examID := uuid.New()
	sess := newSession(examID, 1, 1)

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(r repository.Repositories) error {
		if err := r.Sessions().Create(ctx, sess); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	err = st.WithTx(ctx, func(r repository.Repositories) error {
		_, err := r.Sessions().GetByID(ctx, sess.ID)
		return err
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected rolled back session to be absent, got %v", err)
	}
}

func TestSessions_OneOpenAttemptPerStudent(t *testing.T) {
	ctx := context.Background()
	st := New()
	examID := uuid.New()

	err := st.WithTx(ctx, func(r repository.Repositories) error {
		if err := r.Sessions().Create(ctx, newSession(examID, 7, 1)); err != nil {
			return err
		}
		return r.Sessions().Create(ctx, newSession(examID, 7, 2))
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict for a second open attempt, got %v", err)
	}
}

func TestSessions_FinishIsOneShot(t *testing.T) {
	ctx := context.Background()
	st := New()
	sess := newSession(uuid.New(), 3, 1)

	err := st.WithTx(ctx, func(r repository.Repositories) error {
		if err := r.Sessions().Create(ctx, sess); err != nil {
			return err
		}
		if err := r.Sessions().Finish(ctx, sess.ID, time.Now(), 60); err != nil {
			return err
		}
		return r.Sessions().Finish(ctx, sess.ID, time.Now(), 61)
	})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected second finish to fail, got %v", err)
	}
}

func TestAnswers_UniquePerQuestion(t *testing.T) {
	ctx := context.Background()
	st := New()
	sessionID, questionID := uuid.New(), uuid.New()

	err := st.WithTx(ctx, func(r repository.Repositories) error {
		return r.Answers().CreateBatch(ctx, []model.AnswerRecord{
			{ID: uuid.New(), SessionID: sessionID, QuestionID: questionID, Number: 1},
			{ID: uuid.New(), SessionID: sessionID, QuestionID: questionID, Number: 2},
		})
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCanTakeExam(t *testing.T) {
	ctx := context.Background()
	st := New()
	open, targeted := uuid.New(), uuid.New()
	classID := 4
	st.AddExam(model.Exam{ID: open})
	st.AddExam(model.Exam{ID: targeted})
	st.AddTargetRule(model.ExamTargetRule{ExamID: targeted, ClassID: &classID})

	tests := []struct {
		name   string
		examID uuid.UUID
		class  int
		want   bool
	}{
		{"no rules", open, 1, true},
		{"targeted class", targeted, 4, true},
		{"other class", targeted, 5, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := st.CanTakeExam(ctx, model.Student{ID: 1, ClassID: tc.class}, tc.examID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("CanTakeExam = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLoadSeedFile(t *testing.T) {
	examID := uuid.New()
	seed := map[string]any{
		"students": []map[string]any{{"id": 1, "name": "Ani", "class_id": 2}},
		"exams": []map[string]any{{
			"id":               examID.String(),
			"title":            "Matematika",
			"duration_minutes": 60,
			"access_token":     "ABC123",
			"target_class_ids": []int{2},
			"questions": []map[string]any{
				{"content": "2+2?", "type": "multiple_choice", "answer_key": map[string]any{"answer": "B"}, "max_score": 5, "order_num": 2},
				{"content": "1+1?", "type": "multiple_choice", "answer_key": map[string]any{"answer": "A"}, "max_score": 5, "order_num": 1},
			},
		}},
	}
	raw, err := json.Marshal(seed)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	st := New()
	n, err := st.LoadSeedFile(path)
	if err != nil {
		t.Fatalf("LoadSeedFile: %v", err)
	}
	if n != 1 {
		t.Fatalf("loaded %d exams, want 1", n)
	}

	ctx := context.Background()
	err = st.WithTx(ctx, func(r repository.Repositories) error {
		exam, err := r.Exams().GetByID(ctx, examID)
		if err != nil {
			return err
		}
		if exam.AccessToken != "ABC123" || exam.Status != model.ExamStatusPublished {
			t.Errorf("unexpected exam %+v", exam)
		}
		qs, err := r.Exams().ListQuestions(ctx, examID)
		if err != nil {
			return err
		}
		if len(qs) != 2 || qs[0].Content != "1+1?" {
			t.Errorf("questions not ordered by order_num: %+v", qs)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	ok, _ := st.CanTakeExam(ctx, model.Student{ID: 1, ClassID: 3}, examID)
	if ok {
		t.Error("expected class 3 to be excluded by the seeded target rule")
	}
}
