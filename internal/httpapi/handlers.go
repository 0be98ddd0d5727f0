package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"fourinarow/internal/board"
	"fourinarow/internal/service"
	"fourinarow/internal/store"
	"fourinarow/pkg/wire"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), wire.ErrorResponse{Error: messageFor(err)})
}

// statusFor maps service errors onto the client-facing taxonomy: validation
// conflicts are 400, an unknown room is 404, and storage trouble is a 503
// kept strictly apart from "room not found".
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrMissingPlayer),
		errors.Is(err, service.ErrRoomFull),
		errors.Is(err, service.ErrAlreadyJoined),
		errors.Is(err, service.ErrNotInRoom),
		errors.Is(err, service.ErrInvalidRoomOrPlayer),
		errors.Is(err, service.ErrGameOver),
		errors.Is(err, service.ErrNotYourTurn),
		errors.Is(err, board.ErrColumnFull),
		errors.Is(err, board.ErrBadColumn):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrUnavailable),
		errors.Is(err, service.ErrContention):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, service.ErrMissingPlayer):
		return "Missing player in request"
	case errors.Is(err, service.ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, service.ErrRoomFull):
		return "Room already full"
	case errors.Is(err, service.ErrAlreadyJoined):
		return "Player already in room"
	case errors.Is(err, service.ErrNotInRoom):
		return "Player not in room"
	case errors.Is(err, service.ErrInvalidRoomOrPlayer):
		return "Invalid room or player"
	case errors.Is(err, service.ErrGameOver):
		return "Game over"
	case errors.Is(err, service.ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, board.ErrColumnFull):
		return "Column full"
	case errors.Is(err, board.ErrBadColumn):
		return "Invalid column"
	case errors.Is(err, store.ErrUnavailable):
		return "Storage unavailable"
	case errors.Is(err, service.ErrContention):
		return "Room busy, try again"
	default:
		return err.Error()
	}
}

func CreateRoom(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.CreateRoomRequest
		// A malformed body behaves like a missing player, as with a form
		// that never filled the field.
		_ = json.NewDecoder(r.Body).Decode(&req)

		id, err := svc.Create(r.Context(), req.Player)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wire.CreateRoomResponse{RoomID: id})
	}
}

func JoinRoom(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.JoinRoomRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		if err := svc.Join(r.Context(), req.Player, req.RoomID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wire.JoinRoomResponse{RoomID: req.RoomID, Success: true})
	}
}

func QuickJoin(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.QuickJoinRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		id, err := svc.QuickJoin(r.Context(), req.Player)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wire.QuickJoinResponse{RoomID: id})
	}
}

func SetReady(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.SetReadyRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		all, err := svc.SetReady(r.Context(), req.Player, req.RoomID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wire.SetReadyResponse{AllReady: all})
	}
}

func MakeMove(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req wire.MakeMoveRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		winner, err := svc.MakeMove(r.Context(), req.Player, req.RoomID, req.Col)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wire.MakeMoveResponse{Success: true, Winner: winner})
	}
}

func LobbyStatus(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm, err := svc.Room(r.Context(), r.URL.Query().Get("room_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wire.LobbyStatusResponse{Players: rm.Players, Ready: rm.Ready})
	}
}

func GameState(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm, err := svc.Room(r.Context(), r.URL.Query().Get("room_id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, wire.GameStateResponse{Board: wire.Board(rm.Board), Turn: int(rm.Turn), Winner: rm.Winner})
	}
}

// Healthz reports liveness. The router's probes land here, so a backend
// whose store is unreachable must answer unhealthy rather than accept
// traffic it cannot serve.
func Healthz(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store_error"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
