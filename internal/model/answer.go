package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnswerRecord is a student's answer and score for one snapshot question.
type AnswerRecord struct {
	ID         uuid.UUID       `json:"id"`
	SessionID  uuid.UUID       `json:"session_id"`
	QuestionID uuid.UUID       `json:"question_id"`
	Number     int             `json:"number"`
	Answer     json.RawMessage `json:"answer,omitempty"`
	IsCorrect  *bool           `json:"is_correct"`
	Score      float64         `json:"score"`
	Notes      *string         `json:"notes,omitempty"`
	Flagged    bool            `json:"flagged"`
	AnsweredAt *time.Time      `json:"answered_at,omitempty"`
}

// SaveAnswerRequest is the payload for saving a single answer.
type SaveAnswerRequest struct {
	Answer  json.RawMessage `json:"answer"`
	Flagged bool            `json:"flagged"`
}

// CorrectAnswerRequest is the payload for manually grading an answer.
type CorrectAnswerRequest struct {
	Score     *float64 `json:"score" binding:"required,min=0"`
	IsCorrect *bool    `json:"is_correct"`
	Notes     *string  `json:"notes" binding:"omitempty,max=2000"`
}
