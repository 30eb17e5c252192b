package sequence

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ CounterStore = (*PostgresStore)(nil)

const (
	postgresSchema = `CREATE TABLE IF NOT EXISTS sequence_counters (
		type          TEXT        NOT NULL,
		scope         TEXT        NOT NULL DEFAULT '',
		current_value BIGINT      NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (type, scope)
	)`

	postgresNext = `INSERT INTO sequence_counters (type, scope, current_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (type, scope)
		DO UPDATE SET current_value = sequence_counters.current_value + 1, updated_at = now()
		RETURNING current_value`

	postgresCurrent = `SELECT current_value FROM sequence_counters WHERE type = $1 AND scope = $2`

	postgresAdvance = `INSERT INTO sequence_counters (type, scope, current_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (type, scope)
		DO UPDATE SET current_value = GREATEST(sequence_counters.current_value, EXCLUDED.current_value), updated_at = now()`
)

// pgQuerier is the subset of *pgxpool.Pool the store needs.
type pgQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps counters in a dedicated Postgres table using
// INSERT ... ON CONFLICT ... RETURNING as the atomic primitive.
type PostgresStore struct {
	pool pgQuerier
}

// NewPostgresStore wraps a pgx pool (or any compatible querier).
func NewPostgresStore(pool pgQuerier) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the counters table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return storageError("ensure schema", Key{Type: "*"}, err)
	}
	return nil
}

func (s *PostgresStore) Next(ctx context.Context, key Key) (int64, error) {
	if err := key.validate(); err != nil {
		return 0, err
	}
	var v int64
	if err := s.pool.QueryRow(ctx, postgresNext, key.Type, key.Scope).Scan(&v); err != nil {
		return 0, storageError("next", key, err)
	}
	return v, nil
}

func (s *PostgresStore) Current(ctx context.Context, key Key) (int64, error) {
	if err := key.validate(); err != nil {
		return 0, err
	}
	var v int64
	err := s.pool.QueryRow(ctx, postgresCurrent, key.Type, key.Scope).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, storageError("current", key, err)
	}
	return v, nil
}

func (s *PostgresStore) AdvanceTo(ctx context.Context, key Key, floor int64) error {
	if err := key.validate(); err != nil {
		return err
	}
	if floor <= 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, postgresAdvance, key.Type, key.Scope, floor); err != nil {
		return storageError("advance", key, err)
	}
	return nil
}
