package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"fourinarow/internal/room"
)

func TestMemory_GetMissing(t *testing.T) {
	m := NewMemory()
	if _, _, err := m.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemory_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Put(ctx, "r1", room.New("alice"), 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	r, version, err := m.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if version != 1 {
		t.Fatalf("version = %d, want 1", version)
	}
	if len(r.Players) != 1 || r.Players[0] != "alice" {
		t.Fatalf("players = %v", r.Players)
	}
}

func TestMemory_CreateExisting(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Put(ctx, "r1", room.New("alice"), 0); err != nil {
		t.Fatal(err)
	}
	if err := m.Put(ctx, "r1", room.New("bob"), 0); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("want ErrVersionConflict on duplicate create, got %v", err)
	}
}

func TestMemory_StaleVersionRejected(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Put(ctx, "r1", room.New("alice"), 0); err != nil {
		t.Fatal(err)
	}
	r, version, err := m.Get(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}

	// First writer wins.
	r.Players = append(r.Players, "bob")
	if err := m.Put(ctx, "r1", r, version); err != nil {
		t.Fatalf("first write: %v", err)
	}

	// Second writer still holds the old version and must lose.
	stale := room.New("alice")
	stale.Players = append(stale.Players, "carol")
	if err := m.Put(ctx, "r1", stale, version); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("want ErrVersionConflict on stale write, got %v", err)
	}

	got, _, _ := m.Get(ctx, "r1")
	if got.Players[1] != "bob" {
		t.Fatalf("lost update: players = %v", got.Players)
	}
}

func TestMemory_ConcurrentCAS_OneWinner(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Put(ctx, "r1", room.New("alice"), 0); err != nil {
		t.Fatal(err)
	}
	_, version, err := m.Get(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wins := make(chan struct{}, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, _, err := m.Get(ctx, "r1")
			if err != nil {
				return
			}
			if err := m.Put(ctx, "r1", r, version); err == nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	n := 0
	for range wins {
		n++
	}
	if n != 1 {
		t.Fatalf("%d writers won with the same version, want exactly 1", n)
	}
}

func TestMemory_RoomIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for _, id := range []string{"a", "b", "c"} {
		if err := m.Put(ctx, id, room.New("p-"+id), 0); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := m.RoomIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 {
		t.Fatalf("ids = %v, want 3 entries", ids)
	}
}

func TestMemory_HandsOutCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Put(ctx, "r1", room.New("alice"), 0); err != nil {
		t.Fatal(err)
	}
	r, _, _ := m.Get(ctx, "r1")
	r.Players = append(r.Players, "bob")
	r.Ready["bob"] = true

	again, _, _ := m.Get(ctx, "r1")
	if len(again.Players) != 1 || len(again.Ready) != 1 {
		t.Fatalf("mutating a returned room leaked into the store: %+v", again)
	}
}
