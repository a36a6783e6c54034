// Package storage provides persistent storage using SQLite.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultFile is the database file name inside the data directory.
const DefaultFile = "multicrypto.db"

// Storage is the local history database.
type Storage struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Config holds storage configuration.
type Config struct {
	DataDir string
	File    string // defaults to DefaultFile
}

// New creates a new Storage instance.
func New(cfg *Config) (*Storage, error) {
	dataDir := expandPath(cfg.DataDir)

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	file := cfg.File
	if file == "" {
		file = DefaultFile
	}
	dbPath := filepath.Join(dataDir, file)

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Storage{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Storage) Path() string {
	return s.dbPath
}

func (s *Storage) initSchema() error {
	schema := `
	-- Transactions broadcast by send and sweep
	CREATE TABLE IF NOT EXISTS broadcasts (
		id TEXT PRIMARY KEY,
		coin TEXT NOT NULL,
		txid TEXT NOT NULL,
		kind TEXT NOT NULL,
		destination TEXT NOT NULL,
		amount INTEGER NOT NULL,
		fee INTEGER NOT NULL,
		inputs INTEGER NOT NULL,
		raw BLOB,
		created_at INTEGER NOT NULL,
		UNIQUE(coin, txid)
	);

	CREATE INDEX IF NOT EXISTS idx_broadcasts_coin ON broadcasts(coin, created_at);

	-- Keys found by the vanity search, sealed with a password
	CREATE TABLE IF NOT EXISTS vanity_keys (
		id TEXT PRIMARY KEY,
		coin TEXT NOT NULL,
		address TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		pattern TEXT NOT NULL,
		compressed INTEGER NOT NULL,
		sealed_key BLOB NOT NULL,
		candidates INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_vanity_keys_coin ON vanity_keys(coin);
	`

	_, err := s.db.Exec(schema)
	return err
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
