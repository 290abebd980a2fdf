package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/nvidales/chess-server/internal/obslog"
)

const wsWriteTimeout = 5 * time.Second

// handleEventFeed streams the game's events over a websocket until the
// client goes away or the subscription is torn down. The first frame is
// a full status snapshot so late joiners don't start blind.
func (s *Server) handleEventFeed(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")

	status, err := s.mgr.Status(gameID)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		obslog.L().Warn("ws_accept_error",
			zap.String("game_id", gameID),
			zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "feed closed")

	ctx := r.Context()
	if err := writeFrame(ctx, conn, map[string]any{"kind": "game_status", "game_id": gameID, "status": status}); err != nil {
		return
	}

	feed, cancel := s.bus.Subscribe(gameID)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-feed:
			if !ok {
				return
			}
			if err := writeFrame(ctx, conn, ev); err != nil {
				return
			}
		}
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, v any) error {
	wctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, v)
}
