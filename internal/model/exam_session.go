package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusNotStarted SessionStatus = "NOT_STARTED"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusFinished   SessionStatus = "FINISHED"
	SessionStatusCorrected  SessionStatus = "CORRECTED"
)

// ExamSession represents a student's attempt at an exam.
type ExamSession struct {
	ID              uuid.UUID  `json:"id"`
	ExamID          uuid.UUID  `json:"exam_id"`
	StudentID       int        `json:"student_id"`
	AttemptNumber   int        `json:"attempt_number"`
	IsFinished      bool       `json:"is_finished"`
	IsCorrected     bool       `json:"is_corrected"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
	TotalScore      float64    `json:"total_score"`
	TotalAchievable float64    `json:"total_achievable"`
}

// Status derives the lifecycle state from the session flags.
func (s *ExamSession) Status() SessionStatus {
	switch {
	case s == nil:
		return SessionStatusNotStarted
	case s.IsCorrected:
		return SessionStatusCorrected
	case s.IsFinished:
		return SessionStatusFinished
	default:
		return SessionStatusInProgress
	}
}

// StartAttemptRequest is the payload for a student starting an exam.
type StartAttemptRequest struct {
	AccessToken string `json:"access_token" binding:"omitempty,max=64"`
}
