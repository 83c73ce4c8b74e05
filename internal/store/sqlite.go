package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// Current schema version
const SchemaVersion = "1"

// SQLite is a SQLite-backed store.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Create tables if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS templates (
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			version INTEGER NOT NULL,
			value TEXT NOT NULL,
			ts TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			PRIMARY KEY (name, kind, version)
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}

	// Check/set schema version (use unlocked versions since we're in init)
	version, err := s.getMetadataUnlocked("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}
	if version == "" {
		if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	} else if version != SchemaVersion {
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

// Get retrieves the latest version for (name, kind).
func (s *SQLite) Get(name, kind string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT version, value, ts FROM templates
		WHERE name = ? AND kind = ?
		ORDER BY version DESC LIMIT 1
	`, name, kind)
	return scanRecord(row, name, kind)
}

// GetVersion retrieves a specific version for (name, kind).
func (s *SQLite) GetVersion(name, kind string, version int) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`
		SELECT version, value, ts FROM templates
		WHERE name = ? AND kind = ? AND version = ?
	`, name, kind, version)
	return scanRecord(row, name, kind)
}

func scanRecord(row *sql.Row, name, kind string) (*Record, error) {
	r := Record{Name: name, Kind: kind}
	err := row.Scan(&r.Version, &r.Value, &r.Ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Put stores a new version for (name, kind).
func (s *SQLite) Put(name, kind, value string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var version int
	err := s.db.QueryRow(`
		SELECT COALESCE(MAX(version), 0) + 1 FROM templates
		WHERE name = ? AND kind = ?
	`, name, kind).Scan(&version)
	if err != nil {
		return 0, err
	}
	_, err = s.db.Exec(`
		INSERT INTO templates (name, kind, version, value) VALUES (?, ?, ?, ?)
	`, name, kind, version, value)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// Versions returns all versions for (name, kind), newest first.
func (s *SQLite) Versions(name, kind string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT version, value, ts FROM templates
		WHERE name = ? AND kind = ?
		ORDER BY version DESC
	`, name, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []Record
	for rows.Next() {
		r := Record{Name: name, Kind: kind}
		if err := rows.Scan(&r.Version, &r.Value, &r.Ts); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// Delete removes every version for (name, kind).
func (s *SQLite) Delete(name, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM templates WHERE name = ? AND kind = ?", name, kind)
	return err
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetMetadata retrieves a metadata value by key.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMetadataUnlocked(key)
}

// getMetadataUnlocked retrieves metadata without locking (caller must hold lock).
func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata stores a metadata value by key.
func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMetadataUnlocked(key, value)
}

// setMetadataUnlocked stores metadata without locking (caller must hold lock).
func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
