package php

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// DeclarationStore persists the declarations of parsed files keyed by path and
// content hash, so unchanged files are not parsed again on the next run
type DeclarationStore struct {
	db *sql.DB
	mu sync.Mutex
}

func NewDeclarationStore(dbPath string) (*DeclarationStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	// _txlock=immediate acquires the write lock early and avoids SQLITE_BUSY
	db, err := sql.Open("sqlite", dbPath+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=10000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS files (
			file_path TEXT PRIMARY KEY,
			hash INTEGER NOT NULL,
			value BLOB NOT NULL
		);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return &DeclarationStore{db: db}, nil
}

// Load returns the stored declarations of path when they were stored for the same content hash
func (s *DeclarationStore) Load(path string, hash uint64) (*File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var storedHash int64
	var data []byte
	err := s.db.QueryRow("SELECT hash, value FROM files WHERE file_path = ?", path).Scan(&storedHash, &data)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warningf("failed to load declarations of %s: %v", path, err)
		}
		return nil, false
	}
	if uint64(storedHash) != hash {
		return nil, false
	}

	var file File
	if err := msgpack.Unmarshal(data, &file); err != nil {
		log.Warningf("failed to unmarshal declarations of %s: %v", path, err)
		return nil, false
	}
	return &file, true
}

// Save stores the declarations of file, replacing earlier ones for the same path
func (s *DeclarationStore) Save(file *File) error {
	data, err := msgpack.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal declarations: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// sqlite integers are signed, the hash is stored with its bits reinterpreted
	_, err = s.db.Exec(
		"INSERT INTO files (file_path, hash, value) VALUES (?, ?, ?) ON CONFLICT(file_path) DO UPDATE SET hash = excluded.hash, value = excluded.value",
		file.Path, int64(file.Hash), data,
	)
	if err != nil {
		return fmt.Errorf("failed to save declarations: %w", err)
	}
	return nil
}

// Delete removes the stored declarations of path
func (s *DeclarationStore) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM files WHERE file_path = ?", path); err != nil {
		return fmt.Errorf("failed to delete declarations: %w", err)
	}
	return nil
}

func (s *DeclarationStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.db.Exec("PRAGMA optimize")
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")

	return s.db.Close()
}
