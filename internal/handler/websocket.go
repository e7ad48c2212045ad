package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// HandleWebSocket streams the caller's state: the current value first, then
// every transition. The client never sends anything; reads only watch for close.
func (h *ScreenHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	screen := h.screenFor(w, r)

	// The server's read/write timeouts would otherwise cut the stream.
	rc := http.NewResponseController(w)
	_ = rc.SetReadDeadline(time.Time{})
	_ = rc.SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionContextTakeover,
	})
	if err != nil {
		h.log.Warnw("Failed to accept WebSocket connection", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected shutdown")

	ctx := conn.CloseRead(r.Context())
	updates, unsubscribe := screen.Subscribe()
	defer unsubscribe()

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "screen closed")
				return
			}
			msg, err := newStateMessage(u)
			if err != nil {
				h.log.Errorw("Failed to render state for WebSocket", "error", err)
				conn.Close(websocket.StatusInternalError, "render failed")
				return
			}
			if err := h.write(ctx, conn, msg); err != nil {
				if !errors.Is(err, context.Canceled) {
					h.log.Debugw("WebSocket write failed", "error", err)
				}
				return
			}
		case now := <-ping.C:
			screen.touch(now)
			pingCtx, cancel := context.WithTimeout(ctx, h.writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *ScreenHandler) write(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	writeCtx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, v)
}
