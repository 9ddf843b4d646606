package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DefaultSecurityEventRetention controls automatic security event pruning.
	DefaultSecurityEventRetention = 24 * time.Hour
	// DefaultSeenEventRetention controls how long processed event IDs are remembered.
	DefaultSeenEventRetention = 48 * time.Hour
)

var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS conversation_history (
  id        INTEGER PRIMARY KEY AUTOINCREMENT,
  topic     TEXT NOT NULL,
  role      TEXT NOT NULL CHECK(role IN ('system','user','assistant')),
  content   TEXT NOT NULL,
  timestamp INTEGER NOT NULL
);
`,
	`
CREATE INDEX IF NOT EXISTS idx_conversation_history_topic
ON conversation_history (topic, id);
`,
	`
CREATE TABLE IF NOT EXISTS seen_event_ids (
  event_id    TEXT PRIMARY KEY,
  received_at INTEGER NOT NULL
);
`,
	`
CREATE INDEX IF NOT EXISTS idx_seen_event_received_at
ON seen_event_ids (received_at);
`,
	`
CREATE TABLE IF NOT EXISTS security_events (
  id        INTEGER PRIMARY KEY AUTOINCREMENT,
  kind      TEXT NOT NULL,
  pubkey    TEXT NOT NULL DEFAULT '',
  event_id  TEXT NOT NULL DEFAULT '',
  severity  TEXT NOT NULL CHECK(severity IN ('info','warning','critical')),
  details   TEXT NOT NULL DEFAULT '{}',
  timestamp INTEGER NOT NULL
);
`,
	`
CREATE INDEX IF NOT EXISTS idx_security_events_kind
ON security_events (kind, timestamp DESC);
`,
	`
CREATE INDEX IF NOT EXISTS idx_security_events_pubkey
ON security_events (pubkey, timestamp DESC);
`,
}

// Store is a thin wrapper around a process-private in-memory SQLite database.
// Nothing survives Close.
type Store struct {
	db *sql.DB

	securityEventRetention time.Duration
	closeOnce              sync.Once
}

// Open creates a fresh in-memory database and runs schema migrations.
func Open() (*Store, error) {
	dsn := fmt.Sprintf("file:bitnostr-%s?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000", uuid.NewString())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// The database lives only as long as one connection holds it open.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	store := &Store{
		db:                     db,
		securityEventRetention: DefaultSecurityEventRetention,
	}
	if err := store.applyMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the SQLite connection and discards its contents.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	var closeErr error
	s.closeOnce.Do(func() {
		closeErr = s.db.Close()
	})
	return closeErr
}

func (s *Store) applyMigrations() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version >= len(migrations) {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i := version; i < len(migrations); i++ {
		if _, err := tx.Exec(migrations[i]); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d;", i+1)); err != nil {
			return fmt.Errorf("set schema version %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration transaction: %w", err)
	}

	return nil
}
