package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stemsi/exstem-engine/internal/repository"
	"github.com/stemsi/exstem-engine/internal/response"
	"github.com/stemsi/exstem-engine/internal/service"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   response.ErrCode
	}{
		{"not found", service.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
		{"repository not found", repository.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
		{"wrapped", fmt.Errorf("get exam: %w", service.ErrTimeWindowClosed), http.StatusForbidden, response.ErrTimeWindowClosed},
		{"access token", service.ErrInvalidToken, http.StatusForbidden, response.ErrInvalidAccessToken},
		{"max attempts", service.ErrMaxAttemptsReached, http.StatusConflict, response.ErrMaxAttemptsReached},
		{"no session", service.ErrNoActiveSession, http.StatusConflict, response.ErrNoActiveSession},
		{"score too high", service.ErrScoreExceedsMaximum, http.StatusUnprocessableEntity, response.ErrScoreExceedsMaximum},
		{"validation", service.ErrValidationFailed, http.StatusBadRequest, response.ErrValidation},
		{"conflict", repository.ErrConflict, http.StatusConflict, response.ErrConflict},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, response.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := statusFor(tt.err)
			if status != tt.status || code != tt.code {
				t.Errorf("statusFor(%v) = %d %s, want %d %s", tt.err, status, code, tt.status, tt.code)
			}
		})
	}
}
