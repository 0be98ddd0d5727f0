// Package store persists room documents in storage shared by every game
// server instance, so any instance can serve any request.
//
// Room operations are non-atomic read-modify-write cycles, so every write is
// guarded by an optimistic version check: Put succeeds only when version
// matches what the caller observed at Get, and 0 means "create, must not
// exist yet". Concurrent writers lose with ErrVersionConflict and are
// expected to re-read and retry; the service owns that loop.
package store

import (
	"context"
	"errors"

	"fourinarow/internal/room"
)

var ErrNotFound = errors.New("room not found")
var ErrVersionConflict = errors.New("room version conflict")

// ErrUnavailable marks storage transport failures. It is deliberately
// distinct from ErrNotFound: an unreachable store must surface as a 5xx,
// never as a missing room.
var ErrUnavailable = errors.New("store unavailable")

type Store interface {
	// Get returns the room and the version to pass to a subsequent Put.
	Get(ctx context.Context, id string) (*room.Room, int64, error)

	// Put writes the room if the stored version still equals version.
	Put(ctx context.Context, id string, r *room.Room, version int64) error

	// RoomIDs lists candidate room ids for the quick-join scan. Order is
	// unspecified.
	RoomIDs(ctx context.Context) ([]string, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}
