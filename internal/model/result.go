package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamResult is the canonical outcome of a student for an exam.
type ExamResult struct {
	ID           uuid.UUID `json:"id"`
	ExamID       uuid.UUID `json:"exam_id"`
	StudentID    int       `json:"student_id"`
	SessionID    uuid.UUID `json:"session_id"`
	TotalScore   float64   `json:"total_score"`
	ScorePercent float64   `json:"score_percent"`
	IsPassed     bool      `json:"is_passed"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RankedResult pairs a result with its leaderboard position.
type RankedResult struct {
	ExamResult
	Rank        int    `json:"rank"`
	StudentName string `json:"student_name,omitempty"`
}
