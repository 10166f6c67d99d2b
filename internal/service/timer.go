package service

import (
	"time"

	"github.com/stemsi/exstem-engine/internal/model"
)

// Deadline is the earlier of the attempt's duration deadline and the exam's
// hard end time.
func Deadline(attempt *model.ExamSession, exam *model.Exam) time.Time {
	deadline := attempt.StartedAt.Add(exam.Duration())
	if exam.EndTime != nil && exam.EndTime.Before(deadline) {
		deadline = *exam.EndTime
	}
	return deadline
}

// RemainingSeconds returns the whole seconds left before the deadline, never
// negative. Time is strict wall-clock for both timer policies.
func RemainingSeconds(attempt *model.ExamSession, exam *model.Exam, now time.Time) int {
	remaining := Deadline(attempt, exam).Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining / time.Second)
}

// Expired reports whether less than a whole second is left, matching the
// point where RemainingSeconds reaches zero.
func Expired(attempt *model.ExamSession, exam *model.Exam, now time.Time) bool {
	return Deadline(attempt, exam).Sub(now) < time.Second
}
