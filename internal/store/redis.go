package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"fourinarow/internal/room"
)

const keyPrefix = "room:"

// envelope wraps the room document with its write version.
type envelope struct {
	Version int64      `json:"version"`
	Room    *room.Room `json:"room"`
}

// Redis stores rooms as JSON under room:<id>. The version check runs inside
// a WATCH transaction, so a concurrent writer surfaces as ErrVersionConflict
// rather than a silent lost update. Entries carry a TTL so abandoned rooms
// eventually leave the keyspace.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(url string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	return &Redis{rdb: redis.NewClient(opts), ttl: ttl}, nil
}

func (s *Redis) Close() error { return s.rdb.Close() }

func (s *Redis) Get(ctx context.Context, id string) (*room.Room, int64, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, 0, fmt.Errorf("decoding room %s: %w", id, err)
	}
	return env.Room, env.Version, nil
}

func (s *Redis) Put(ctx context.Context, id string, r *room.Room, version int64) error {
	key := keyPrefix + id
	raw, err := json.Marshal(envelope{Version: version + 1, Room: r})
	if err != nil {
		return fmt.Errorf("encoding room %s: %w", id, err)
	}

	txn := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if version != 0 {
				return ErrVersionConflict
			}
		case err != nil:
			return err
		default:
			var env envelope
			if err := json.Unmarshal(cur, &env); err != nil {
				return fmt.Errorf("decoding room %s: %w", id, err)
			}
			if env.Version != version {
				return ErrVersionConflict
			}
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.ttl)
			return nil
		})
		return err
	}

	err = s.rdb.Watch(ctx, txn, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr), errors.Is(err, ErrVersionConflict):
		return ErrVersionConflict
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

func (s *Redis) RoomIDs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.rdb.Scan(ctx, 0, keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ids, nil
}

func (s *Redis) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
