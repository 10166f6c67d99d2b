package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-engine/internal/model"
	"github.com/stemsi/exstem-engine/internal/response"
	"github.com/stemsi/exstem-engine/internal/service"
	"github.com/stemsi/exstem-engine/internal/validator"
)

const (
	defaultResultsPerPage = 50
	maxResultsPerPage     = 200
)

// GradingHandler serves graders: attempt review, manual correction and results.
type GradingHandler struct {
	gradingService *service.GradingService
	resultService  *service.ResultService
}

// NewGradingHandler creates a new GradingHandler.
func NewGradingHandler(gradingService *service.GradingService, resultService *service.ResultService) *GradingHandler {
	return &GradingHandler{
		gradingService: gradingService,
		resultService:  resultService,
	}
}

// GetSession godoc
// GET /api/v1/grader/sessions/:session_id
// Returns the attempt with answer keys and every answer record.
func (h *GradingHandler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.gradingService.GetGradingView(c.Request.Context(), sessionID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// CorrectAnswer godoc
// PUT /api/v1/grader/sessions/:session_id/answers/:answer_id
// Sets a manual score on one answer and refreshes the result.
func (h *GradingHandler) CorrectAnswer(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}
	answerID, err := uuid.Parse(c.Param("answer_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CorrectAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	out, err := h.gradingService.CorrectAnswer(c.Request.Context(), service.CorrectAnswerInput{
		SessionID: sessionID,
		AnswerID:  answerID,
		Score:     *req.Score,
		IsCorrect: req.IsCorrect,
		Notes:     req.Notes,
	})
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, out)
}

// FinalizeSession godoc
// POST /api/v1/grader/sessions/:session_id/finalize
// Recomputes the total and the canonical result of a finished attempt.
func (h *GradingHandler) FinalizeSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	result, err := h.resultService.FinalizeSession(c.Request.Context(), sessionID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ListResults godoc
// GET /api/v1/grader/exams/:exam_id/results?page=1&per_page=50
// Returns the ranked results of an exam.
func (h *GradingHandler) ListResults(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultResultsPerPage)))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > maxResultsPerPage {
		perPage = defaultResultsPerPage
	}

	results, err := h.resultService.ListResults(c.Request.Context(), examID)
	if err != nil {
		failWithError(c, err)
		return
	}

	total := len(results)
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	pageItems := results[start:end]
	if pageItems == nil {
		pageItems = []model.RankedResult{}
	}

	response.SuccessWithPagination(c, http.StatusOK, pageItems, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	})
}
