package memstore

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-engine/internal/model"
)

type seedExam struct {
	model.Exam
	AccessToken    string           `json:"access_token"`
	TargetClassIDs []int            `json:"target_class_ids"`
	Questions      []model.Question `json:"questions"`
}

type seedFile struct {
	Students []model.Student `json:"students"`
	Exams    []seedExam      `json:"exams"`
}

// LoadSeedFile registers the students and exams of a JSON fixture and
// returns the number of exams loaded.
func (s *Store) LoadSeedFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}

	for _, st := range seed.Students {
		s.AddStudent(st)
	}
	for i, se := range seed.Exams {
		exam := se.Exam
		if exam.ID == uuid.Nil {
			return 0, fmt.Errorf("seed exam %d: id is required", i)
		}
		exam.AccessToken = se.AccessToken
		if exam.Status == "" {
			exam.Status = model.ExamStatusPublished
		}
		if exam.ResultPolicy == "" {
			exam.ResultPolicy = model.ResultPolicyOfficial
		}
		if exam.TimerPolicy == "" {
			exam.TimerPolicy = model.TimerPolicyStrict
		}
		s.AddExam(exam, se.Questions...)
		for _, classID := range se.TargetClassIDs {
			classID := classID
			s.AddTargetRule(model.ExamTargetRule{ExamID: exam.ID, ClassID: &classID})
		}
	}
	return len(seed.Exams), nil
}
