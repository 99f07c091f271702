package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS summaries (
	fingerprint TEXT PRIMARY KEY,
	payload     BLOB NOT NULL,
	inserted_at TIMESTAMP NOT NULL
);`

// SQLiteStore persists summaries across runs in a single-file database.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache db %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, fp Fingerprint) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM summaries WHERE fingerprint = ?", fp.String(),
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	return payload, true, nil
}

// Put is last-writer-wins: concurrent documents with the same fingerprint
// produce equivalent payloads, so overwriting is harmless.
func (s *SQLiteStore) Put(ctx context.Context, fp Fingerprint, payload []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO summaries (fingerprint, payload, inserted_at)
		VALUES (?, ?, ?)
		ON CONFLICT (fingerprint) DO UPDATE SET
			payload = excluded.payload,
			inserted_at = excluded.inserted_at`,
		fp.String(), payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
