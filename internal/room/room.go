// Package room defines the mutable state of one game session. The JSON shape
// of Room is the persisted document and the wire contract at the same time.
package room

import (
	"github.com/google/uuid"

	"fourinarow/internal/board"
)

// Room is one session's complete state, keyed in the store by its id.
// Players order defines seat index: Players[0] is seat 0.
type Room struct {
	Players []string        `json:"players"`
	Ready   map[string]bool `json:"ready"`
	Board   board.Board     `json:"board"`
	Turn    board.Seat      `json:"turn"`
	Winner  *string         `json:"winner"`
}

// New returns a fresh room holding only its creator: empty board, seat 0 to
// move, nobody ready, no winner.
func New(player string) *Room {
	return &Room{
		Players: []string{player},
		Ready:   map[string]bool{player: false},
	}
}

// NewID returns a short opaque room id, the first 8 characters of a UUID.
func NewID() string { return uuid.NewString()[:8] }

// Seat returns the seat index of player within the room.
func (r *Room) Seat(player string) (board.Seat, bool) {
	for i, p := range r.Players {
		if p == player {
			return board.Seat(i), true
		}
	}
	return 0, false
}

func (r *Room) Full() bool { return len(r.Players) >= 2 }

func (r *Room) Finished() bool { return r.Winner != nil }

// AllReady reports whether both seats are taken and every player has
// signalled ready.
func (r *Room) AllReady() bool {
	if len(r.Players) != 2 {
		return false
	}
	for _, p := range r.Players {
		if !r.Ready[p] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so stores can hand rooms out without sharing
// mutable state with callers.
func (r *Room) Clone() *Room {
	c := *r
	c.Players = append([]string(nil), r.Players...)
	c.Ready = make(map[string]bool, len(r.Ready))
	for p, ok := range r.Ready {
		c.Ready[p] = ok
	}
	if r.Winner != nil {
		w := *r.Winner
		c.Winner = &w
	}
	return &c
}
