package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores buffers in a single key/value table.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) the database at dbPath.
// Use ":memory:" for a throwaway database.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	b := &SQLiteBackend{db: db}
	if err := b.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS persistent_state (
		handle TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := b.db.Exec(schema)
	return err
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

func (b *SQLiteBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var buf []byte
	err := b.db.QueryRowContext(ctx,
		"SELECT payload FROM persistent_state WHERE handle = ?", key,
	).Scan(&buf)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query state: %w", err)
	}
	return buf, true, nil
}

func (b *SQLiteBackend) Set(ctx context.Context, key string, buf []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO persistent_state (handle, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(handle) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, buf, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
