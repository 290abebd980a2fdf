// Package httpapi is the thin JSON gateway in front of the session
// manager. It does transport and decoding only; every rule lives below.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nvidales/chess-server/internal/events"
	"github.com/nvidales/chess-server/internal/obslog"
	"github.com/nvidales/chess-server/internal/session"
	"github.com/nvidales/chess-server/pkg/gamedto"
)

type Server struct {
	mgr  *session.Manager
	bus  *events.Bus
	http *http.Server
}

func NewServer(addr string, mgr *session.Manager, bus *events.Bus) *Server {
	s := &Server{mgr: mgr, bus: bus}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /games", s.handleCreate)
	mux.HandleFunc("GET /games", s.handleList)
	mux.HandleFunc("GET /games/{id}", s.handleStatus)
	mux.HandleFunc("POST /games/{id}/join", s.handleJoin)
	mux.HandleFunc("POST /games/{id}/ready", s.handleReady)
	mux.HandleFunc("POST /games/{id}/move", s.handleMove)
	mux.HandleFunc("POST /games/{id}/promote", s.handlePromote)
	mux.HandleFunc("POST /games/{id}/resign", s.handleResign)
	mux.HandleFunc("POST /games/{id}/draw/offer", s.handleDrawOffer)
	mux.HandleFunc("POST /games/{id}/draw/accept", s.handleDrawAccept)
	mux.HandleFunc("POST /games/{id}/draw/decline", s.handleDrawDecline)
	mux.HandleFunc("POST /games/{id}/disconnect", s.handleDisconnect)
	mux.HandleFunc("POST /games/{id}/reconnect", s.handleReconnect)
	mux.HandleFunc("POST /games/{id}/rematch", s.handleRematch)
	mux.HandleFunc("GET /games/{id}/moves", s.handleMoves)
	mux.HandleFunc("GET /games/{id}/ws", s.handleEventFeed)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.http = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // websocket feeds stay open
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error { return s.http.ListenAndServe() }

func (s *Server) Shutdown(ctx context.Context) error { return s.http.Shutdown(ctx) }

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req gamedto.CreateGameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	gameID := s.mgr.StartNewGame(req.RoomName, req.Password)
	writeJSON(w, http.StatusCreated, map[string]string{"game_id": gameID})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.mgr.ActiveGames())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.mgr.Status(r.PathValue("id"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req gamedto.JoinGameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Nickname) == "" {
		writeError(w, http.StatusBadRequest, errors.New("nickname is required"))
		return
	}
	color, err := s.mgr.JoinGame(r.Context(), r.PathValue("id"), req.Nickname, req.PlayerID, req.Elo, req.Password)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"color": color.String()})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, r, s.mgr.SetPlayerReady)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req gamedto.MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.mgr.TryMakeMove(r.PathValue("id"), req.Nickname, req.Move); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePromote(w http.ResponseWriter, r *http.Request) {
	var req gamedto.PromoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Piece) != 1 {
		writeError(w, http.StatusBadRequest, errors.New("piece must be a single letter"))
		return
	}
	if err := s.mgr.TryPromotePiece(r.PathValue("id"), req.Nickname, req.Piece[0]); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResign(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, r, s.mgr.Resign)
}

func (s *Server) handleDrawOffer(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, r, s.mgr.OfferDraw)
}

func (s *Server) handleDrawAccept(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, r, s.mgr.AcceptDraw)
}

func (s *Server) handleDrawDecline(w http.ResponseWriter, r *http.Request) {
	s.playerAction(w, r, s.mgr.DeclineDraw)
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	var req gamedto.PlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.mgr.HandlePlayerDisconnection(r.PathValue("id"), req.Nickname)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReconnect(w http.ResponseWriter, r *http.Request) {
	var req gamedto.PlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.mgr.Reconnect(r.PathValue("id"), req.Nickname, r.RemoteAddr); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRematch(w http.ResponseWriter, r *http.Request) {
	gameID, err := s.mgr.StartRematch(r.PathValue("id"))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"game_id": gameID})
}

// handleMoves answers ?square=e2 with the legal destinations from that
// square; without the parameter it returns the move history.
func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	if square := r.URL.Query().Get("square"); square != "" {
		moves, err := s.mgr.ValidMoves(gameID, square)
		if err != nil {
			if errors.Is(err, session.ErrGameNotFound) {
				writeSessionError(w, err)
				return
			}
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{"moves": moves})
		return
	}
	history, err := s.mgr.MovesHistory(gameID)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"history": history})
}

func (s *Server) playerAction(w http.ResponseWriter, r *http.Request, fn func(gameID, nickname string) error) {
	var req gamedto.PlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := fn(r.PathValue("id"), req.Nickname); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("malformed request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obslog.L().Warn("response_encode_error", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrGameNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, session.ErrInvalidPassword), errors.Is(err, session.ErrNotInGame):
		writeError(w, http.StatusForbidden, err)
	case errors.Is(err, session.ErrGameFull),
		errors.Is(err, session.ErrNotYourTurn),
		errors.Is(err, session.ErrIllegalMove),
		errors.Is(err, session.ErrNotPromoting),
		errors.Is(err, session.ErrNoDrawOffer),
		errors.Is(err, session.ErrWrongState):
		writeError(w, http.StatusConflict, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}
