package model

import "github.com/google/uuid"

// ExamTargetRule grants an exam to a class. A nil ClassID targets every class.
type ExamTargetRule struct {
	ID      int       `json:"id"`
	ExamID  uuid.UUID `json:"exam_id"`
	ClassID *int      `json:"class_id,omitempty"`
}
