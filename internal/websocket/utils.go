package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/stemsi/exstem-engine/internal/response"
)

const (
	writeWait = 10 * time.Second
	// An idle exam tab still pings or saves well within this window.
	readWait = 5 * time.Minute
)

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends an ErrorResponse carrying the API error code and its message.
func WriteError(conn *websocket.Conn, code response.ErrCode) error {
	return WriteTyped(conn, ErrorResponse{
		Event:   EventError,
		Code:    string(code),
		Message: response.GetMessage(code),
	})
}

// ReadMessage reads one text frame, resetting the read deadline.
func ReadMessage(conn *websocket.Conn) ([]byte, error) {
	conn.SetReadDeadline(time.Now().Add(readWait))
	_, data, err := conn.ReadMessage()
	return data, err
}
