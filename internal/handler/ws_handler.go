package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-engine/internal/response"
	"github.com/stemsi/exstem-engine/internal/service"
	ws "github.com/stemsi/exstem-engine/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams answer saves over a WebSocket for the open attempt.
type WSHandler struct {
	sessionService *service.ExamSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
	now            func() time.Time
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
		now:            time.Now,
	}
}

// ExamWebSocketStream godoc
// WS /ws/v1/student/exams/:exam_id/stream
// Accepts save, finish, time and ping actions. The connection closes after
// the attempt is finished.
func (h *WSHandler) ExamWebSocketStream(c *gin.Context) {
	claims, examID, ok := studentExam(c)
	if !ok {
		return
	}
	studentID := claims.UserID
	ctx := c.Request.Context()

	// Refuse the upgrade when there is nothing to stream to.
	state, err := h.sessionService.GetRemainingTime(ctx, examID, studentID, h.now())
	if err != nil {
		failWithError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("student_id", studentID).
		Str("exam_id", examID.String()).
		Str("session_id", state.SessionID.String()).
		Logger()

	wsLog.Info().Msg("Student connected")
	ws.WriteTyped(conn, ws.TimeResponse{Event: ws.EventTime, TimeState: state})

	for {
		data, err := ws.ReadMessage(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var env ws.RequestEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			ws.WriteError(conn, response.ErrInvalidPayload)
			continue
		}

		switch env.Action {
		case ws.ActionSave:
			h.handleSave(ctx, conn, wsLog, examID, studentID, data)
		case ws.ActionTime:
			h.handleTime(ctx, conn, wsLog, examID, studentID)
		case ws.ActionFinish:
			if h.handleFinish(ctx, conn, wsLog, examID, studentID) {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "finished"),
					time.Now().Add(time.Second))
				return
			}
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(env.Action)).Msg("Unknown action")
			ws.WriteError(conn, response.ErrInvalidPayload)
		}
	}
}

func (h *WSHandler) handleSave(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, examID uuid.UUID, studentID int, data []byte) {
	var req ws.SaveRequest
	if err := json.Unmarshal(data, &req); err != nil || req.Number < 1 || len(req.Answer) == 0 {
		ws.WriteError(conn, response.ErrInvalidPayload)
		return
	}

	rec, err := h.sessionService.SaveAnswer(ctx, service.SaveAnswerInput{
		ExamID:    examID,
		StudentID: studentID,
		Number:    req.Number,
		Answer:    req.Answer,
		Flagged:   req.Flagged,
		Now:       h.now(),
	})
	if err != nil {
		h.writeServiceError(conn, wsLog, err)
		return
	}

	ws.WriteTyped(conn, ws.SavedResponse{
		Event:      ws.EventSaved,
		Number:     rec.Number,
		Flagged:    rec.Flagged,
		AnsweredAt: rec.AnsweredAt,
	})
}

func (h *WSHandler) handleTime(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, examID uuid.UUID, studentID int) {
	state, err := h.sessionService.GetRemainingTime(ctx, examID, studentID, h.now())
	if err != nil {
		h.writeServiceError(conn, wsLog, err)
		return
	}
	ws.WriteTyped(conn, ws.TimeResponse{Event: ws.EventTime, TimeState: state})
}

// handleFinish reports whether the attempt was finished.
func (h *WSHandler) handleFinish(ctx context.Context, conn *websocket.Conn, wsLog zerolog.Logger, examID uuid.UUID, studentID int) bool {
	out, err := h.sessionService.FinishAttempt(ctx, examID, studentID, h.now())
	if err != nil {
		h.writeServiceError(conn, wsLog, err)
		return false
	}
	ws.WriteTyped(conn, ws.FinishedResponse{Event: ws.EventFinished, FinishOutcome: out})
	return true
}

func (h *WSHandler) writeServiceError(conn *websocket.Conn, wsLog zerolog.Logger, err error) {
	if errors.Is(err, service.ErrValidationFailed) {
		ws.WriteError(conn, response.ErrInvalidAnswer)
		return
	}
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		wsLog.Error().Err(err).Msg("WebSocket action failed")
	}
	ws.WriteError(conn, code)
}
