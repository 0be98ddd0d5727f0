package store

import (
	"context"
	"sync"

	"fourinarow/internal/room"
)

type entry struct {
	room    *room.Room
	version int64
}

// Memory is an in-process Store for tests and single-instance runs. Rooms
// are deep-copied on the way in and out so callers never share state through
// the map.
type Memory struct {
	mu    sync.Mutex
	rooms map[string]entry
}

func NewMemory() *Memory {
	return &Memory{rooms: make(map[string]entry)}
}

func (m *Memory) Get(ctx context.Context, id string) (*room.Room, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rooms[id]
	if !ok {
		return nil, 0, ErrNotFound
	}
	return e.room.Clone(), e.version, nil
}

func (m *Memory) Put(ctx context.Context, id string, r *room.Room, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rooms[id]
	if version == 0 {
		if ok {
			return ErrVersionConflict
		}
	} else if !ok || e.version != version {
		return ErrVersionConflict
	}
	m.rooms[id] = entry{room: r.Clone(), version: version + 1}
	return nil
}

func (m *Memory) RoomIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
