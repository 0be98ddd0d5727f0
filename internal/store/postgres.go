package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fourinarow/internal/room"
)

// Postgres keeps each room as a jsonb document with a version column. The
// compare-and-swap is the WHERE clause on version, so it holds across
// processes without any in-memory locking.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) Close() { s.pool.Close() }

// EnsureSchema creates the rooms table if it does not exist.
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rooms (
			id         text PRIMARY KEY,
			doc        jsonb NOT NULL,
			version    bigint NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, id string) (*room.Room, int64, error) {
	var doc []byte
	var version int64
	err := s.pool.QueryRow(ctx,
		`SELECT doc, version FROM rooms WHERE id = $1`, id).Scan(&doc, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var r room.Room
	if err := json.Unmarshal(doc, &r); err != nil {
		return nil, 0, fmt.Errorf("decoding room %s: %w", id, err)
	}
	return &r, version, nil
}

func (s *Postgres) Put(ctx context.Context, id string, r *room.Room, version int64) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding room %s: %w", id, err)
	}

	if version == 0 {
		ct, err := s.pool.Exec(ctx, `
			INSERT INTO rooms (id, doc, version) VALUES ($1, $2, 1)
			ON CONFLICT (id) DO NOTHING`, id, doc)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if ct.RowsAffected() == 0 {
			return ErrVersionConflict
		}
		return nil
	}

	ct, err := s.pool.Exec(ctx, `
		UPDATE rooms SET doc = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3`, id, doc, version)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (s *Postgres) RoomIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM rooms ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ids, nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
