package calculator

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"calcsession/internal/handlers"
	"calcsession/internal/observability"
)

// keypadIdleTimeout closes a keypad socket that sends nothing for this long.
const keypadIdleTimeout = 10 * time.Minute

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The keypad is meant to be embedded by any front end.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Keypad handles GET /calculator/sessions/{id}/ws. The client sends one
// KeyMessage per press and receives a SessionResponse after each; the first
// frame is the current display.
func (h *Handler) Keypad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	logger := observability.LoggerWithTrace(ctx).With(zap.String("session", id))

	snap, err := h.store.Snapshot(id)
	if err != nil {
		handlers.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logger.Warn("keypad upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	logger.Info("keypad connected")
	if err := conn.WriteJSON(newSessionResponse(id, snap)); err != nil {
		return
	}

	for {
		conn.SetReadDeadline(time.Now().Add(keypadIdleTimeout))

		var msg KeyMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("keypad closed unexpectedly", zap.Error(err))
			} else {
				logger.Info("keypad disconnected")
			}
			return
		}

		key, err := ParseKey(msg.Key)
		if err != nil {
			errorCounter.Add(ctx, 1)
			resp := newSessionResponse(id, snap)
			resp.Error = err.Error()
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
			continue
		}

		snap, err = h.press(ctx, id, []Key{key})
		if errors.Is(err, ErrSessionNotFound) {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
			return
		}

		resp := newSessionResponse(id, snap)
		if err != nil {
			resp.Error = err.Error()
		}
		if err := conn.WriteJSON(resp); err != nil {
			logger.Warn("keypad write failed", zap.Error(err))
			return
		}
	}
}
