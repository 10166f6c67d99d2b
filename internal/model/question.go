package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// QuestionType identifies the grading rule applied to a question.
type QuestionType string

const (
	QuestionTypeMultipleChoice    QuestionType = "multiple_choice"
	QuestionTypeTrueFalse         QuestionType = "true_false"
	QuestionTypeMultipleSelection QuestionType = "multiple_selection"
	QuestionTypeMatching          QuestionType = "matching"
	QuestionTypeSequence          QuestionType = "sequence"
	QuestionTypeMathInput         QuestionType = "math_input"
	QuestionTypeShortAnswer       QuestionType = "short_answer"
	QuestionTypeArabicResponse    QuestionType = "arabic_response"
	QuestionTypeJavaneseResponse  QuestionType = "javanese_response"
	QuestionTypeEssay             QuestionType = "essay"
	QuestionTypeArrangeWords      QuestionType = "arrange_words"
)

// Difficulty is the author-assigned difficulty of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is a live question belonging to an exam. It is owned by the
// authoring subsystem and may change at any time; attempts never read it
// after their snapshot is taken.
type Question struct {
	ID         uuid.UUID       `json:"id"`
	ExamID     uuid.UUID       `json:"exam_id"`
	Content    string          `json:"content"`
	Type       QuestionType    `json:"type"`
	Options    json.RawMessage `json:"options"`
	AnswerKey  json.RawMessage `json:"answer_key"`
	MaxScore   float64         `json:"max_score"`
	Difficulty Difficulty      `json:"difficulty"`
	OrderNum   int             `json:"order_num"`
}

// ExamQuestion is the immutable per-attempt copy of a question.
type ExamQuestion struct {
	ID               uuid.UUID       `json:"id"`
	SessionID        uuid.UUID       `json:"session_id"`
	SourceQuestionID uuid.UUID       `json:"source_question_id"`
	Number           int             `json:"number"`
	Content          string          `json:"content"`
	Type             QuestionType    `json:"type"`
	Options          json.RawMessage `json:"options"`
	AnswerKey        json.RawMessage `json:"answer_key"`
	MaxScore         float64         `json:"max_score"`
	Difficulty       Difficulty      `json:"difficulty"`
}

// QuestionForStudent is a snapshot question without the answer key, sent to students.
type QuestionForStudent struct {
	ID         uuid.UUID       `json:"id"`
	Number     int             `json:"number"`
	Content    string          `json:"content"`
	Type       QuestionType    `json:"type"`
	Options    json.RawMessage `json:"options"`
	MaxScore   float64         `json:"max_score"`
	Difficulty Difficulty      `json:"difficulty"`
}

// ForStudent strips the answer key from the snapshot.
func (q *ExamQuestion) ForStudent() QuestionForStudent {
	return QuestionForStudent{
		ID:         q.ID,
		Number:     q.Number,
		Content:    q.Content,
		Type:       q.Type,
		Options:    q.Options,
		MaxScore:   q.MaxScore,
		Difficulty: q.Difficulty,
	}
}
