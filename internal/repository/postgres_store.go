package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const recordCollectionsSchema = `CREATE TABLE IF NOT EXISTS record_collections (
	name TEXT PRIMARY KEY,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
)`

// PostgresStore keeps each collection as one JSONB row of record_collections.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresStore creates a new instance of PostgresStore.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// EnsureSchema creates the backing table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, recordCollectionsSchema); err != nil {
		return fmt.Errorf("ensure record_collections: %w", err)
	}
	return nil
}

// Get loads the payload stored under key.
func (s *PostgresStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	const query = `SELECT payload FROM record_collections WHERE name = $1`
	var payload []byte
	if err := s.db.GetContext(ctx, &payload, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get collection %s: %w", key, err)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Set upserts the payload stored under key.
func (s *PostgresStore) Set(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	const query = `INSERT INTO record_collections (name, payload, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, query, key, payload, s.now().UTC()); err != nil {
		return fmt.Errorf("set collection %s: %w", key, err)
	}
	return nil
}

// Delete removes the row stored under key.
func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM record_collections WHERE name = $1`
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete collection %s: %w", key, err)
	}
	return nil
}
