package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultQueryTimeout = 10 * time.Second

// PostgresStore keeps entries in a shared Postgres table so several service
// instances can reuse one another's downloads.
type PostgresStore struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres cache requires a DSN")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	s := NewPostgresStore(pool, defaultQueryTimeout)
	if err := s.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func NewPostgresStore(db *pgxpool.Pool, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout}
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *PostgresStore) init(ctx context.Context) error {
	const query = `
	CREATE TABLE IF NOT EXISTS cache_entries (
		key       TEXT PRIMARY KEY,
		value     BYTEA NOT NULL,
		stored_at TIMESTAMPTZ NOT NULL
	)
	`
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.db.Exec(timeoutCtx, query); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	const query = `SELECT value, stored_at FROM cache_entries WHERE key = $1`

	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var e Entry
	err := s.db.QueryRow(timeoutCtx, query, key).Scan(&e.Value, &e.StoredAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("reading cache entry %s: %w", key, err)
	}
	return e, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key string, entry Entry) error {
	const query = `
	INSERT INTO cache_entries (key, value, stored_at) VALUES ($1, $2, $3)
	ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, stored_at = EXCLUDED.stored_at
	`
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.db.Exec(timeoutCtx, query, key, entry.Value, entry.StoredAt); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.db.Exec(timeoutCtx, `DELETE FROM cache_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("deleting cache entry %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.db.Exec(timeoutCtx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

func (s *PostgresStore) Keys(ctx context.Context) ([]string, error) {
	timeoutCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.Query(timeoutCtx, `SELECT key FROM cache_entries ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("listing cache keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning cache keys: %w", err)
	}
	return keys, nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
