package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"carsage/internal/session"
)

// #region ws-setup

// Variables so tests can shrink the windows.
var (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 120 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type wsInbound struct {
	Text string `json:"text"`
}

// #endregion

// #region ws-handler

// HandleWS runs a chat session over one websocket connection. Inbound
// frames carry the user's text; every outbound frame is a full reply,
// structured payload included.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.mgr.Memento(id); err != nil {
		status, resp := mapSessionError(err)
		writeJSON(w, status, resp)
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Snapshot the windows for the lifetime of this connection.
	writeWait, pongWait, pingEvery := wsWriteWait, wsPongWait, wsPingEvery

	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		slog.Error("ws set read deadline failed", "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writeCh := make(chan replyResponse, 8)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(pingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		var in wsInbound
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("ws read failed", "session", id, "error", err)
			}
			break
		}
		if in.Text == "" {
			continue
		}

		reply, err := h.mgr.Handle(ctx, id, in.Text)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				break
			}
			slog.Error("ws turn failed", "session", id, "error", err)
			break
		}

		select {
		case writeCh <- toReplyResponse(id, reply):
		case <-ctx.Done():
			return
		}

		// The read loop was blocked for the whole turn, so any pongs
		// that arrived meanwhile never refreshed the deadline. Reset it
		// here or a turn longer than the pong window kills the
		// connection on the next read.
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}
	}

	cancel()
	<-writerDone
}

// #endregion
