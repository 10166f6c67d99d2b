// Package memstore is an in-memory repository.Store. Each transaction works
// on a private copy of the state that replaces the shared state on success,
// so a failed unit of work leaves nothing behind.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/repository"
)

type resultKey struct {
	examID    uuid.UUID
	studentID int
}

type state struct {
	exams     map[uuid.UUID]model.Exam
	questions map[uuid.UUID][]model.Question
	rules     map[uuid.UUID][]model.ExamTargetRule
	students  map[int]model.Student
	sessions  map[uuid.UUID]model.ExamSession
	snapshots map[uuid.UUID]model.ExamQuestion
	answers   map[uuid.UUID]model.AnswerRecord
	results   map[resultKey]model.ExamResult
}

func newState() *state {
	return &state{
		exams:     make(map[uuid.UUID]model.Exam),
		questions: make(map[uuid.UUID][]model.Question),
		rules:     make(map[uuid.UUID][]model.ExamTargetRule),
		students:  make(map[int]model.Student),
		sessions:  make(map[uuid.UUID]model.ExamSession),
		snapshots: make(map[uuid.UUID]model.ExamQuestion),
		answers:   make(map[uuid.UUID]model.AnswerRecord),
		results:   make(map[resultKey]model.ExamResult),
	}
}

// clone copies the mutable tables. Catalog tables are only written by the
// seeding helpers, outside transactions, and are shared.
func (s *state) clone() *state {
	c := &state{
		exams:     s.exams,
		questions: s.questions,
		rules:     s.rules,
		students:  s.students,
		sessions:  make(map[uuid.UUID]model.ExamSession, len(s.sessions)),
		snapshots: make(map[uuid.UUID]model.ExamQuestion, len(s.snapshots)),
		answers:   make(map[uuid.UUID]model.AnswerRecord, len(s.answers)),
		results:   make(map[resultKey]model.ExamResult, len(s.results)),
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.snapshots {
		c.snapshots[k] = v
	}
	for k, v := range s.answers {
		c.answers[k] = v
	}
	for k, v := range s.results {
		c.results[k] = v
	}
	return c
}

// Store is an in-memory repository.Store. Transactions are serialized.
type Store struct {
	mu    sync.Mutex
	state *state
}

// New creates an empty Store.
func New() *Store {
	return &Store{state: newState()}
}

// WithTx runs fn against a copy of the state and publishes it if fn succeeds.
func (s *Store) WithTx(ctx context.Context, fn func(repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := s.state.clone()
	if err := fn(repos{st: tx}); err != nil {
		return err
	}
	s.state = tx
	return nil
}

// AddExam registers an exam and its live questions.
func (s *Store) AddExam(exam model.Exam, questions ...model.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.exams[exam.ID] = exam
	qs := make([]model.Question, len(questions))
	copy(qs, questions)
	for i := range qs {
		qs[i].ExamID = exam.ID
		if qs[i].ID == uuid.Nil {
			qs[i].ID = uuid.New()
		}
	}
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].OrderNum < qs[j].OrderNum })
	s.state.questions[exam.ID] = qs
}

// AddTargetRule grants an exam to a class.
func (s *Store) AddTargetRule(rule model.ExamTargetRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.rules[rule.ExamID] = append(s.state.rules[rule.ExamID], rule)
}

// AddStudent registers a student name for result listings.
func (s *Store) AddStudent(st model.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.students[st.ID] = st
}

// CanTakeExam applies the exam's target rules. An exam without rules is open
// to every student.
func (s *Store) CanTakeExam(_ context.Context, student model.Student, examID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rules := s.state.rules[examID]
	if len(rules) == 0 {
		return true, nil
	}
	for _, r := range rules {
		if r.ClassID == nil || *r.ClassID == student.ClassID {
			return true, nil
		}
	}
	return false, nil
}

type repos struct {
	st *state
}

func (r repos) Exams() repository.ExamStore { return examStore{r.st} }
func (r repos) Sessions() repository.SessionStore { return sessionStore{r.st} }
func (r repos) Snapshots() repository.SnapshotStore { return snapshotStore{r.st} }
func (r repos) Answers() repository.AnswerStore { return answerStore{r.st} }
func (r repos) Results() repository.ResultStore { return resultStore{r.st} }
