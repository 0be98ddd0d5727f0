package room

import (
	"encoding/json"
	"testing"

	"fourinarow/internal/board"
)

func TestNew(t *testing.T) {
	r := New("alice")
	if len(r.Players) != 1 || r.Players[0] != "alice" {
		t.Fatalf("players = %v", r.Players)
	}
	if ready, ok := r.Ready["alice"]; !ok || ready {
		t.Fatalf("creator should be present and not ready")
	}
	if r.Turn != board.Seat0 || r.Winner != nil {
		t.Fatalf("new room should start at seat 0 with no winner")
	}
}

func TestNewID_Length(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewID()
		if len(id) != 8 {
			t.Fatalf("id %q has length %d, want 8", id, len(id))
		}
		seen[id] = true
	}
	if len(seen) < 100 {
		t.Fatalf("ids collide far too often: %d unique of 100", len(seen))
	}
}

func TestSeat(t *testing.T) {
	r := New("alice")
	r.Players = append(r.Players, "bob")

	if s, ok := r.Seat("alice"); !ok || s != board.Seat0 {
		t.Fatalf("alice seat = %v, %v", s, ok)
	}
	if s, ok := r.Seat("bob"); !ok || s != board.Seat1 {
		t.Fatalf("bob seat = %v, %v", s, ok)
	}
	if _, ok := r.Seat("mallory"); ok {
		t.Fatalf("unknown player should have no seat")
	}
}

func TestAllReady(t *testing.T) {
	r := New("alice")
	if r.AllReady() {
		t.Fatalf("one player can never be all ready")
	}
	r.Players = append(r.Players, "bob")
	r.Ready["bob"] = true
	if r.AllReady() {
		t.Fatalf("alice is not ready yet")
	}
	r.Ready["alice"] = true
	if !r.AllReady() {
		t.Fatalf("both ready should report all ready")
	}
}

func TestClone_Isolated(t *testing.T) {
	r := New("alice")
	w := "alice"
	r.Winner = &w

	c := r.Clone()
	c.Players = append(c.Players, "bob")
	c.Ready["bob"] = false
	*c.Winner = "bob"
	c.Board[5][0] = 1

	if len(r.Players) != 1 || len(r.Ready) != 1 || *r.Winner != "alice" || r.Board[5][0] != 0 {
		t.Fatalf("mutating clone leaked into original: %+v", r)
	}
}

func TestJSONShape(t *testing.T) {
	raw, err := json.Marshal(New("alice"))
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"players", "ready", "board", "turn", "winner"} {
		if _, ok := doc[field]; !ok {
			t.Fatalf("document missing %q: %s", field, raw)
		}
	}
	if string(doc["winner"]) != "null" {
		t.Fatalf("fresh room winner = %s, want null", doc["winner"])
	}
	if string(doc["turn"]) != "0" {
		t.Fatalf("fresh room turn = %s, want 0", doc["turn"])
	}
}
