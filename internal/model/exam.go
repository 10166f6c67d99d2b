package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft      ExamStatus = "DRAFT"
	ExamStatusPublished  ExamStatus = "PUBLISHED"
	ExamStatusInProgress ExamStatus = "IN_PROGRESS"
	ExamStatusCompleted  ExamStatus = "COMPLETED"
	ExamStatusArchived   ExamStatus = "ARCHIVED"
)

// TimerPolicy controls how the attempt countdown is reconciled.
type TimerPolicy string

const (
	TimerPolicyStrict   TimerPolicy = "strict"
	TimerPolicyFlexible TimerPolicy = "flexible"
)

// ResultPolicy selects which finished attempt becomes the canonical result.
type ResultPolicy string

const (
	ResultPolicyOfficial ResultPolicy = "official"
	ResultPolicyBest     ResultPolicy = "best_attempt"
	ResultPolicyLatest   ResultPolicy = "latest_attempt"
)

// Exam is the read-only exam definition owned by the authoring subsystem.
type Exam struct {
	ID                 uuid.UUID    `json:"id"`
	Title              string       `json:"title"`
	DurationMinutes    int          `json:"duration_minutes"`
	StartTime          *time.Time   `json:"start_time,omitempty"`
	EndTime            *time.Time   `json:"end_time,omitempty"`
	TimerPolicy        TimerPolicy  `json:"timer_policy"`
	MaxAttempts        *int         `json:"max_attempts,omitempty"`
	RandomizeQuestions bool         `json:"randomize_questions"`
	PassingScore       float64      `json:"passing_score"`
	ResultPolicy       ResultPolicy `json:"result_policy"`
	Status             ExamStatus   `json:"status"`
	AccessToken        string       `json:"-"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// IsPublished reports whether students may start the exam.
func (e *Exam) IsPublished() bool {
	return e.Status == ExamStatusPublished || e.Status == ExamStatusInProgress
}

// WithinWindow reports whether now falls inside the exam's hard start/end bounds.
func (e *Exam) WithinWindow(now time.Time) bool {
	if e.StartTime != nil && now.Before(*e.StartTime) {
		return false
	}
	if e.EndTime != nil && now.After(*e.EndTime) {
		return false
	}
	return true
}

// Duration returns the exam duration as a time.Duration.
func (e *Exam) Duration() time.Duration {
	return time.Duration(e.DurationMinutes) * time.Minute
}
