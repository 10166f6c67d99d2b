package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/repository/memstore"
)

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type fakeQueue struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (q *fakeQueue) Enqueue(_ context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
	return nil
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[uuid.UUID][]model.QuestionForStudent
	gets, hits  int
	invalidated []uuid.UUID
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[uuid.UUID][]model.QuestionForStudent)}
}

func (c *fakeCache) Get(_ context.Context, id uuid.UUID) ([]model.QuestionForStudent, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	qs, ok := c.entries[id]
	if ok {
		c.hits++
	}
	return qs, ok, nil
}

func (c *fakeCache) Set(_ context.Context, id uuid.UUID, qs []model.QuestionForStudent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = qs
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, id uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidated = append(c.invalidated, id)
	return nil
}

type fixture struct {
	store   *memstore.Store
	exam    model.Exam
	session *ExamSessionService
	results *ResultService
	grading *GradingService
	cache   *fakeCache
}

func newExam(mutate func(*model.Exam)) model.Exam {
	e := model.Exam{
		ID:              uuid.New(),
		Title:           "Ujian Matematika",
		DurationMinutes: 60,
		TimerPolicy:     model.TimerPolicyStrict,
		PassingScore:    75,
		ResultPolicy:    model.ResultPolicyOfficial,
		Status:          model.ExamStatusPublished,
	}
	if mutate != nil {
		mutate(&e)
	}
	return e
}

func question(qType model.QuestionType, key string, max float64, order int) model.Question {
	return model.Question{
		ID:        uuid.New(),
		Content:   "Soal " + string(qType),
		Type:      qType,
		Options:   json.RawMessage(`["A","B","C","D"]`),
		AnswerKey: json.RawMessage(key),
		MaxScore:  max,
		OrderNum:  order,
	}
}

func newFixture(t *testing.T, exam model.Exam, questions ...model.Question) *fixture {
	t.Helper()
	return newFixtureWithQueue(t, nil, exam, questions...)
}

func newFixtureWithQueue(t *testing.T, queue FinalizeQueue, exam model.Exam, questions ...model.Question) *fixture {
	t.Helper()
	store := memstore.New()
	store.AddExam(exam, questions...)
	log := zerolog.Nop()
	results := NewResultService(store, log)
	cache := newFakeCache()
	return &fixture{
		store:   store,
		exam:    exam,
		session: NewExamSessionService(store, results, cache, queue, log),
		results: results,
		grading: NewGradingService(store, results, log),
		cache:   cache,
	}
}

func (f *fixture) start(t *testing.T, studentID int, at time.Time) *model.ExamSession {
	t.Helper()
	sess, err := f.session.StartAttempt(context.Background(), StartAttemptInput{
		ExamID:      f.exam.ID,
		Student:     model.Student{ID: studentID},
		HasAccess:   true,
		AccessToken: f.exam.AccessToken,
		Now:         at,
	})
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	return sess
}

func (f *fixture) save(t *testing.T, studentID, number int, answer string, at time.Time) *model.AnswerRecord {
	t.Helper()
	rec, err := f.session.SaveAnswer(context.Background(), SaveAnswerInput{
		ExamID:    f.exam.ID,
		StudentID: studentID,
		Number:    number,
		Answer:    json.RawMessage(answer),
		Now:       at,
	})
	if err != nil {
		t.Fatalf("SaveAnswer(%d, %s): %v", number, answer, err)
	}
	return rec
}

func (f *fixture) finish(t *testing.T, studentID int, at time.Time) *FinishOutcome {
	t.Helper()
	out, err := f.session.FinishAttempt(context.Background(), f.exam.ID, studentID, at)
	if err != nil {
		t.Fatalf("FinishAttempt: %v", err)
	}
	return out
}

func intPtr(v int) *int { return &v }
