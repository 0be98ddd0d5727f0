// Package service implements the room lifecycle operations: create, join,
// quick-join, ready, move, and the two read-only queries. Every mutation is
// a read-validate-mutate-write cycle against the shared store, retried under
// the store's optimistic version check so concurrent writers never clobber
// each other.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"fourinarow/internal/board"
	"fourinarow/internal/room"
	"fourinarow/internal/store"
)

var ErrMissingPlayer = errors.New("missing player in request")
var ErrRoomNotFound = errors.New("room not found")
var ErrRoomFull = errors.New("room already full")
var ErrAlreadyJoined = errors.New("player already in room")
var ErrNotInRoom = errors.New("player not in room")
var ErrInvalidRoomOrPlayer = errors.New("invalid room or player")
var ErrGameOver = errors.New("game over")
var ErrNotYourTurn = errors.New("not your turn")

// ErrContention is returned when the retry budget is exhausted without a
// clean write. Validation errors are deterministic and never retried; this
// only happens under sustained write pressure on one room.
var ErrContention = errors.New("room contention")

// maxAttempts bounds every optimistic retry loop.
const maxAttempts = 5

type Service struct {
	store store.Store
	log   *zap.Logger
}

func New(st store.Store, log *zap.Logger) *Service {
	return &Service{store: st, log: log}
}

// Create makes a fresh one-player room and returns its id. Ids are short, so
// a collision with an existing room is possible; it surfaces as a version
// conflict on the create and we regenerate.
func (s *Service) Create(ctx context.Context, player string) (string, error) {
	if player == "" {
		return "", ErrMissingPlayer
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		id := room.NewID()
		err := s.store.Put(ctx, id, room.New(player), 0)
		if errors.Is(err, store.ErrVersionConflict) {
			s.log.Warn("room id collision, regenerating", zap.String("room_id", id))
			continue
		}
		if err != nil {
			return "", err
		}
		s.log.Info("room created", zap.String("room_id", id), zap.String("player", player))
		return id, nil
	}
	return "", ErrContention
}

// Join adds player as seat 1 of the room. The two-player cap is enforced
// under the same version check as moves, so two racing joins cannot produce
// a three-player room.
func (s *Service) Join(ctx context.Context, player, id string) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		r, version, err := s.store.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		if r.Full() {
			return ErrRoomFull
		}
		if _, ok := r.Seat(player); ok {
			return ErrAlreadyJoined
		}

		r.Players = append(r.Players, player)
		r.Ready[player] = false
		err = s.store.Put(ctx, id, r, version)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err == nil {
			s.log.Info("player joined", zap.String("room_id", id), zap.String("player", player))
		}
		return err
	}
	return ErrContention
}

// QuickJoin joins the first room with exactly one open seat, or creates a new
// room when none is found. A room filled by a racing quick-joiner shows up
// as ErrRoomFull from Join and the scan moves on.
func (s *Service) QuickJoin(ctx context.Context, player string) (string, error) {
	if player == "" {
		return "", ErrMissingPlayer
	}
	ids, err := s.store.RoomIDs(ctx)
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		r, _, err := s.store.Get(ctx, id)
		if err != nil {
			// The room may have expired between the scan and the read.
			continue
		}
		if len(r.Players) != 1 || r.Players[0] == player {
			continue
		}
		switch err := s.Join(ctx, player, id); {
		case err == nil:
			return id, nil
		case errors.Is(err, ErrRoomFull),
			errors.Is(err, ErrRoomNotFound),
			errors.Is(err, ErrAlreadyJoined),
			errors.Is(err, ErrContention):
			continue
		default:
			return "", err
		}
	}
	return s.Create(ctx, player)
}

// SetReady marks player ready and reports whether the room now has two
// players who are both ready.
func (s *Service) SetReady(ctx context.Context, player, id string) (bool, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		r, version, err := s.store.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrInvalidRoomOrPlayer
		}
		if err != nil {
			return false, err
		}
		if _, ok := r.Seat(player); !ok {
			return false, ErrInvalidRoomOrPlayer
		}

		r.Ready[player] = true
		err = s.store.Put(ctx, id, r, version)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return false, err
		}
		return r.AllReady(), nil
	}
	return false, ErrContention
}

// MakeMove drops player's piece in col. On a winning move the room becomes
// terminal: winner is set and the turn does not advance. Otherwise the turn
// toggles to the other seat. Returns the winner name, nil while play
// continues.
func (s *Service) MakeMove(ctx context.Context, player, id string, col int) (*string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		r, version, err := s.store.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		if err != nil {
			return nil, err
		}
		if r.Finished() {
			return nil, ErrGameOver
		}
		seat, ok := r.Seat(player)
		if !ok {
			return nil, ErrNotInRoom
		}
		if r.Turn != seat {
			return nil, ErrNotYourTurn
		}

		row, nb, err := board.Drop(r.Board, col, seat)
		if err != nil {
			return nil, err
		}
		r.Board = nb
		if board.Wins(nb, row, col, seat) {
			winner := player
			r.Winner = &winner
		} else {
			r.Turn = r.Turn.Other()
		}

		err = s.store.Put(ctx, id, r, version)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if r.Winner != nil {
			s.log.Info("game won",
				zap.String("room_id", id),
				zap.String("winner", player),
				zap.Int("col", col))
		}
		return r.Winner, nil
	}
	return nil, ErrContention
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Room returns a snapshot of the room for the read-only queries.
func (s *Service) Room(ctx context.Context, id string) (*room.Room, error) {
	r, _, err := s.store.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}
