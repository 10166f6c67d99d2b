package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-engine/internal/repository"
	"github.com/stemsi/exstem-engine/internal/response"
	"github.com/stemsi/exstem-engine/internal/service"
)

// serviceErrors maps service sentinels to their HTTP status and error code.
var serviceErrors = []struct {
	err    error
	status int
	code   response.ErrCode
}{
	{service.ErrValidationFailed, http.StatusBadRequest, response.ErrValidation},
	{service.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
	{service.ErrExamNotAvailable, http.StatusForbidden, response.ErrExamNotAvailable},
	{service.ErrTimeWindowClosed, http.StatusForbidden, response.ErrTimeWindowClosed},
	{service.ErrInvalidToken, http.StatusForbidden, response.ErrInvalidAccessToken},
	{service.ErrMaxAttemptsReached, http.StatusConflict, response.ErrMaxAttemptsReached},
	{service.ErrNoActiveSession, http.StatusConflict, response.ErrNoActiveSession},
	{service.ErrAttemptInProgress, http.StatusConflict, response.ErrAttemptInProgress},
	{service.ErrScoreExceedsMaximum, http.StatusUnprocessableEntity, response.ErrScoreExceedsMaximum},
	{repository.ErrConflict, http.StatusConflict, response.ErrConflict},
}

// statusFor resolves err to an HTTP status and error code. Unknown errors are
// internal.
func statusFor(err error) (int, response.ErrCode) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// failWithError writes the error envelope for err and records it on the
// context for the request logger.
func failWithError(c *gin.Context, err error) {
	status, code := statusFor(err)
	_ = c.Error(err)
	response.Fail(c, status, code)
}
