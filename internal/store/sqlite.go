package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/moviops/movi-console/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db           *sql.DB
	transcriptMu sync.Mutex // Serializes transcript read-modify-write to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS transcripts (
		history_key TEXT PRIMARY KEY,
		messages_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_transcripts_updated ON transcripts(updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LoadTranscript retrieves the ordered message sequence for a history key.
// A row with a malformed messages_json blob is discarded with a logged
// warning and treated as an empty history.
func (s *SQLiteStore) LoadTranscript(ctx context.Context, key string) ([]domain.Message, error) {
	s.transcriptMu.Lock()
	defer s.transcriptMu.Unlock()
	return s.loadLocked(ctx, key)
}

func (s *SQLiteStore) loadLocked(ctx context.Context, key string) ([]domain.Message, error) {
	query := `SELECT messages_json FROM transcripts WHERE history_key = ?`
	row := s.db.QueryRowContext(ctx, query, key)

	var messagesJSON string
	err := row.Scan(&messagesJSON)
	if err == sql.ErrNoRows {
		return []domain.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan transcript row: %w", err)
	}

	var messages []domain.Message
	if err := json.Unmarshal([]byte(messagesJSON), &messages); err != nil {
		slog.Warn("discarding corrupt transcript record", "history_key", key, "error", err)
		return []domain.Message{}, nil
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// AppendMessage appends one turn and re-persists the full sequence.
// Retries with exponential backoff on SQLite concurrency errors.
func (s *SQLiteStore) AppendMessage(ctx context.Context, key string, msg domain.Message) error {
	s.transcriptMu.Lock()
	defer s.transcriptMu.Unlock()

	messages, err := s.loadLocked(ctx, key)
	if err != nil {
		return fmt.Errorf("load transcript before append: %w", err)
	}
	messages = append(messages, msg)

	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	query := `
		INSERT INTO transcripts (history_key, messages_json, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(history_key) DO UPDATE SET
			messages_json = excluded.messages_json,
			updated_at = excluded.updated_at`

	now := time.Now().Unix()
	return s.execWithRetry(ctx, "append transcript", func() error {
		_, execErr := s.db.ExecContext(ctx, query, key, string(data), now, now)
		return execErr
	})
}

// ClearTranscript erases the persisted record for a history key.
func (s *SQLiteStore) ClearTranscript(ctx context.Context, key string) error {
	s.transcriptMu.Lock()
	defer s.transcriptMu.Unlock()

	query := `DELETE FROM transcripts WHERE history_key = ?`
	return s.execWithRetry(ctx, "clear transcript", func() error {
		_, execErr := s.db.ExecContext(ctx, query, key)
		return execErr
	})
}

// execWithRetry runs a write with retry logic and exponential backoff to
// handle SQLITE_BUSY errors.
func (s *SQLiteStore) execWithRetry(ctx context.Context, op string, fn func() error) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if isSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i) // exponential backoff: 100ms, 200ms, 400ms
			slog.Debug("sqlite write conflict, retrying",
				"op", op,
				"attempt", i+1,
				"delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			continue
		}
		break
	}

	return fmt.Errorf("%s after retries: %w", op, err)
}

// isSQLiteConflictError reports whether err is a SQLite concurrency error
// (SQLITE_BUSY or "database is locked") that warrants a retry.
func isSQLiteConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
