package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-engine/internal/middleware"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/response"
	"github.com/stemsi/exstem-engine/internal/service"
	"github.com/stemsi/exstem-engine/internal/validator"
)

// StudentPortalHandler handles the exam-taking endpoints.
type StudentPortalHandler struct {
	sessionService *service.ExamSessionService
	resultService  *service.ResultService
	access         service.AccessChecker
	now            func() time.Time
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	sessionService *service.ExamSessionService,
	resultService *service.ResultService,
	access service.AccessChecker,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		sessionService: sessionService,
		resultService:  resultService,
		access:         access,
		now:            time.Now,
	}
}

// studentExam extracts the caller's claims and the :exam_id parameter,
// writing the error response itself when either is missing.
func studentExam(c *gin.Context) (*service.Claims, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}
	return claims, examID, true
}

// StartExam godoc
// POST /api/v1/student/exams/:exam_id/start
// Opens a new attempt or resumes the one in progress.
func (h *StudentPortalHandler) StartExam(c *gin.Context) {
	claims, examID, ok := studentExam(c)
	if !ok {
		return
	}

	var req model.StartAttemptRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	ctx := c.Request.Context()
	student := claims.Student()

	hasAccess, err := h.access.CanTakeExam(ctx, student, examID)
	if err != nil {
		failWithError(c, err)
		return
	}

	session, err := h.sessionService.StartAttempt(ctx, service.StartAttemptInput{
		ExamID:      examID,
		Student:     student,
		HasAccess:   hasAccess,
		AccessToken: req.AccessToken,
		Now:         h.now(),
	})
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// GetExamPaper godoc
// GET /api/v1/student/exams/:exam_id/paper
// Returns the questions of the open attempt without answer keys, plus the
// answers saved so far. Covers page reloads.
func (h *StudentPortalHandler) GetExamPaper(c *gin.Context) {
	claims, examID, ok := studentExam(c)
	if !ok {
		return
	}

	paper, err := h.sessionService.GetPaper(c.Request.Context(), examID, claims.UserID, h.now())
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// SaveAnswer godoc
// PUT /api/v1/student/exams/:exam_id/answers/:number
// Overwrites the answer to one question and scores it.
func (h *StudentPortalHandler) SaveAnswer(c *gin.Context) {
	claims, examID, ok := studentExam(c)
	if !ok {
		return
	}

	number, fields := validator.PositiveIntParam(c, "number")
	if fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	rec, err := h.sessionService.SaveAnswer(c.Request.Context(), service.SaveAnswerInput{
		ExamID:    examID,
		StudentID: claims.UserID,
		Number:    number,
		Answer:    req.Answer,
		Flagged:   req.Flagged,
		Now:       h.now(),
	})
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			_ = c.Error(err)
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidAnswer)
			return
		}
		failWithError(c, err)
		return
	}

	// Scores stay hidden from students until the result is published.
	response.Success(c, http.StatusOK, gin.H{
		"number":      number,
		"flagged":     rec.Flagged,
		"answered_at": rec.AnsweredAt,
	})
}

// GetRemainingTime godoc
// GET /api/v1/student/exams/:exam_id/time
func (h *StudentPortalHandler) GetRemainingTime(c *gin.Context) {
	claims, examID, ok := studentExam(c)
	if !ok {
		return
	}

	state, err := h.sessionService.GetRemainingTime(c.Request.Context(), examID, claims.UserID, h.now())
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// FinishExam godoc
// POST /api/v1/student/exams/:exam_id/finish
// Ends the open attempt. The result is included when finalized synchronously.
func (h *StudentPortalHandler) FinishExam(c *gin.Context) {
	claims, examID, ok := studentExam(c)
	if !ok {
		return
	}

	out, err := h.sessionService.FinishAttempt(c.Request.Context(), examID, claims.UserID, h.now())
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, out)
}

// GetResult godoc
// GET /api/v1/student/exams/:exam_id/result
// Returns the caller's canonical result with its rank.
func (h *StudentPortalHandler) GetResult(c *gin.Context) {
	claims, examID, ok := studentExam(c)
	if !ok {
		return
	}

	result, err := h.resultService.GetStudentResult(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrResultNotReady)
			return
		}
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}
