// Package collection is the backing store for the browser engine: a sqlite
// database of decks, notes, and cards, plus the undoable-operation log and
// the key-value configuration table the engine persists its state to.
package collection

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/sift/internal/config"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Typed identifiers. A CardID and a NoteID are never interchangeable;
// conversion goes through CardIDsOfNotes / NotesOfCards.
type (
	CardID int64
	NoteID int64
	DeckID int64
)

// Queue states for a card. Negative queues are excluded from study.
type Queue int

const (
	QueueNew         Queue = 0
	QueueLearn       Queue = 1
	QueueReview      Queue = 2
	QueueSuspended   Queue = -1
	QueueUserBuried  Queue = -2
	QueueSchedBuried Queue = -3
)

// Buried reports whether the queue is a burial state, by any burial reason.
func (q Queue) Buried() bool {
	return q == QueueUserBuried || q == QueueSchedBuried
}

// MarkedTag is the note tag that represents the "marked" state.
const MarkedTag = "marked"

// Collection wraps the sqlite database and the base directory used for
// exports. All access goes through its methods; callers never see *sql.DB.
type Collection struct {
	db      *sql.DB
	baseDir string
}

// Open initializes the sqlite database at baseDir/sift.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.sift.
func Open(baseDir string) (*Collection, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	exportsDir := filepath.Join(baseDir, "exports")
	if err := os.MkdirAll(exportsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create exports directory: %w", err)
	}
	_ = os.Chmod(exportsDir, 0700)

	// Pragmas in the connection string apply to all pooled connections.
	dbPath := filepath.Join(baseDir, "sift.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return &Collection{db: db, baseDir: baseDir}, nil
}

// Close closes the underlying database.
func (c *Collection) Close() error {
	return c.db.Close()
}

// ExportsDir returns the directory exports are written to by default.
func (c *Collection) ExportsDir() string {
	return filepath.Join(c.baseDir, "exports")
}

// ConfigurePool applies connection pool settings from config.
// Only sets limits if explicitly configured (non-zero values).
func (c *Collection) ConfigurePool(cfg *config.Config) {
	if cfg == nil {
		return
	}
	if cfg.DBMaxOpenConns > 0 {
		c.db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	}
	if cfg.DBMaxIdleConns > 0 {
		c.db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := getUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: Initial schema (v1)
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS decks (
		  id   INTEGER PRIMARY KEY AUTOINCREMENT,
		  name TEXT NOT NULL UNIQUE COLLATE NOCASE
		);

		CREATE TABLE IF NOT EXISTS notes (
		  id         INTEGER PRIMARY KEY AUTOINCREMENT,
		  front      TEXT NOT NULL,
		  back       TEXT NOT NULL DEFAULT '',
		  tags       TEXT NOT NULL DEFAULT '',
		  created_at INTEGER NOT NULL,
		  updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS cards (
		  id         INTEGER PRIMARY KEY AUTOINCREMENT,
		  note_id    INTEGER NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
		  deck_id    INTEGER NOT NULL REFERENCES decks(id),
		  queue      INTEGER NOT NULL DEFAULT 0,
		  orig_queue INTEGER NOT NULL DEFAULT 0,
		  position   INTEGER NOT NULL DEFAULT 0,
		  flag       INTEGER NOT NULL DEFAULT 0,
		  created_at INTEGER NOT NULL,
		  updated_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_cards_note ON cards(note_id);
		CREATE INDEX IF NOT EXISTS idx_cards_deck ON cards(deck_id);
		CREATE INDEX IF NOT EXISTS idx_cards_queue ON cards(queue);
		CREATE INDEX IF NOT EXISTS idx_cards_position ON cards(position);

		CREATE TABLE IF NOT EXISTS config (
		  key   TEXT PRIMARY KEY,
		  value TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS ops (
		  id         TEXT PRIMARY KEY,
		  label      TEXT NOT NULL,
		  changes    TEXT NOT NULL,
		  created_at INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}

		// Every collection has a default deck.
		if _, err := db.Exec(`INSERT OR IGNORE INTO decks (name) VALUES ('Default')`); err != nil {
			return fmt.Errorf("failed to seed default deck: %w", err)
		}

		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

func getUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
