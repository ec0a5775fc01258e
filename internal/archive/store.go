package archive

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a task id has no row in the cold store.
var ErrNotFound = errors.New("task not found in archive")

// ErrDuplicateID is returned when archiving a task whose id is already
// archived. The first archived row is never overwritten.
var ErrDuplicateID = errors.New("task is already archived")

// Store is the cold-storage engine for completed tasks: a SQLite database
// with a full-text shadow index plus monthly JSON backup files. A Store is
// created unopened; Initialize opens the database and establishes the
// schema, and every public operation initializes lazily so callers never
// have to sequence it themselves.
type Store struct {
	dbPath    string
	backupDir string

	mu          sync.Mutex
	db          *sql.DB
	initialized bool
}

func New(dbPath, backupDir string) *Store {
	return &Store{dbPath: dbPath, backupDir: backupDir}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS archived_tasks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	category TEXT,
	project TEXT,
	priority TEXT,
	status TEXT,
	due_date TEXT,
	reminder TEXT,
	recurring TEXT,
	tags TEXT,
	attachments TEXT,
	notes TEXT,
	created_at TEXT,
	updated_at TEXT,
	completed_at TEXT,
	archived_at TEXT NOT NULL,
	created_by TEXT,
	completed_by TEXT,
	search_text TEXT,
	metadata TEXT
);

CREATE INDEX IF NOT EXISTS idx_archived_tasks_project ON archived_tasks(project);
CREATE INDEX IF NOT EXISTS idx_archived_tasks_category ON archived_tasks(category);
CREATE INDEX IF NOT EXISTS idx_archived_tasks_completed_at ON archived_tasks(completed_at);
CREATE INDEX IF NOT EXISTS idx_archived_tasks_archived_at ON archived_tasks(archived_at);
CREATE INDEX IF NOT EXISTS idx_archived_tasks_priority ON archived_tasks(priority);
CREATE INDEX IF NOT EXISTS idx_archived_tasks_created_by ON archived_tasks(created_by);

CREATE VIRTUAL TABLE IF NOT EXISTS archived_tasks_fts USING fts5(
	id UNINDEXED,
	title,
	description,
	tags,
	notes,
	search_text
);

CREATE TRIGGER IF NOT EXISTS archived_tasks_ai AFTER INSERT ON archived_tasks BEGIN
	INSERT INTO archived_tasks_fts(id, title, description, tags, notes, search_text)
	VALUES (new.id, new.title, new.description, new.tags, new.notes, new.search_text);
END;
`

// Initialize opens the database, creating its parent directory and the
// backup directory if missing, and issues the schema DDL. Safe to call any
// number of times; only the first call per Store does work. Any failure
// here is fatal to the store: nothing is cached and the next call retries
// from scratch.
func (s *Store) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
		return fmt.Errorf("create archive db directory: %w", err)
	}
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("open archive database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		log.Printf("archive schema initialization failed: %v", err)
		return fmt.Errorf("create archive schema: %w", err)
	}

	s.db = db
	s.initialized = true
	return nil
}

// ensure initializes lazily and returns the live handle.
func (s *Store) ensure() (*sql.DB, error) {
	if err := s.Initialize(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db, nil
}

// Close releases the database connection and resets the initialized flag,
// so a later call re-initializes against the same files.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.initialized = false
	return err
}
