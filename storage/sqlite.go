package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	_ "github.com/mattn/go-sqlite3"
)

var validTableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteStore implements a key-value store in a SQLite database file.
// The namespace is the table name.
type SQLiteStore struct {
	db          *sql.DB
	path        string
	table       string
	log         *slog.Logger
	locationURI string
}

// NewSQLiteStore opens (or creates) the database at dbPath and ensures the
// namespace table exists.
func NewSQLiteStore(dbPath string, namespace string, log *slog.Logger) (*SQLiteStore, error) {
	if !validTableName.MatchString(namespace) {
		return nil, fmt.Errorf("invalid sqlite namespace %q", namespace)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id         TEXT PRIMARY KEY,
		address    TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`, namespace)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:          db,
		path:        dbPath,
		table:       namespace,
		log:         log,
		locationURI: fmt.Sprintf("sqlite://%s?namespace=%s", dbPath, namespace),
	}, nil
}

// Get returns the address stored for key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var address string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT address FROM %s WHERE id = ?`, s.table), key).Scan(&address)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query entry: %w", err)
	}
	return address, true, nil
}

// Set upserts the address for key.
func (s *SQLiteStore) Set(ctx context.Context, key string, value string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, address, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET address = excluded.address, updated_at = CURRENT_TIMESTAMP`, s.table),
		key, value)
	if err != nil {
		return fmt.Errorf("failed to upsert entry: %w", err)
	}

	s.log.Debug("Stored entry in sqlite", slog.String("table", s.table))
	return nil
}

// Available pings the database.
func (s *SQLiteStore) Available(ctx context.Context) bool {
	if err := s.db.PingContext(ctx); err != nil {
		s.log.Debug("SQLite store unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this store.
func (s *SQLiteStore) Name() string {
	return fmt.Sprintf("sqlite-%s", filepath.Base(s.path))
}

// LocationURI returns the URI that identifies this store.
func (s *SQLiteStore) LocationURI() string {
	return s.locationURI
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
