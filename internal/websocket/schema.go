package websocket

import (
	"encoding/json"
	"time"

	"github.com/stemsi/exstem-engine/internal/service"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionSave   Action = "save"
	ActionFinish Action = "finish"
	ActionTime   Action = "time"
	ActionPing   Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// SaveRequest overwrites the answer to one question.
type SaveRequest struct {
	Action  Action          `json:"action"`
	Number  int             `json:"number"`
	Answer  json.RawMessage `json:"answer"`
	Flagged bool            `json:"flagged"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventSaved    Event = "saved"
	EventFinished Event = "finished"
	EventTime     Event = "time"
	EventPong     Event = "pong"
)

type SavedResponse struct {
	Event      Event      `json:"event"`
	Number     int        `json:"number"`
	Flagged    bool       `json:"flagged"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

type FinishedResponse struct {
	Event Event `json:"event"`
	*service.FinishOutcome
}

type TimeResponse struct {
	Event Event `json:"event"`
	*service.TimeState
}

type ErrorResponse struct {
	Event   Event  `json:"event"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
