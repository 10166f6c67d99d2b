package service

import (
	"errors"

	"github.com/stemsi/exstem-engine/internal/repository"
)

// Exam-taking errors. Callers test them with errors.Is.
var (
	// ErrNotFound aliases the repository error so lookups propagate unchanged.
	ErrNotFound            = repository.ErrNotFound
	ErrExamNotAvailable    = errors.New("exam is not available for this student")
	ErrTimeWindowClosed    = errors.New("exam time window is closed")
	ErrInvalidToken        = errors.New("invalid exam access token")
	ErrMaxAttemptsReached  = errors.New("maximum number of attempts reached")
	ErrNoActiveSession     = errors.New("no exam session in progress")
	ErrAttemptInProgress   = errors.New("exam session is still in progress")
	ErrScoreExceedsMaximum = errors.New("score exceeds the question maximum")
	ErrValidationFailed    = errors.New("validation failed")
)
