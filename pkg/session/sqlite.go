package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver
)

/*
SQLiteStore persists sessions across restarts. Each row carries a version
counter bumped on every write; a Put must present the version it read, so a
row that moved underneath the caller is a visible conflict instead of a
silent last-writer-wins overwrite.
*/
type SQLiteStore struct {
	db *sql.DB
}

// ErrConflict signals that a concurrent writer updated the session between
// this caller's read and write.
var ErrConflict = fmt.Errorf("session was modified concurrently")

// NewSQLiteStore opens (or creates) the session database at path. Use
// ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id          TEXT PRIMARY KEY,
			history     BLOB NOT NULL,
			version     INTEGER NOT NULL DEFAULT 1,
			last_active INTEGER NOT NULL,
			expires_at  INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT history, version, last_active, expires_at FROM sessions WHERE id = ?
	`, id)

	var (
		history                     []byte
		version, lastActive, expiry int64
	)
	if err := row.Scan(&history, &version, &lastActive, &expiry); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load session: %w", err)
	}

	if time.Now().Unix() > expiry {
		_ = s.Delete(ctx, id)
		return nil, false, nil
	}

	sess := &Session{ID: id, Version: version, LastActive: time.Unix(lastActive, 0)}
	if err := json.Unmarshal(history, &sess.History); err != nil {
		return nil, false, fmt.Errorf("decode session history: %w", err)
	}
	return sess, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, sess *Session, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	history, err := json.Marshal(sess.History)
	if err != nil {
		return fmt.Errorf("encode session history: %w", err)
	}

	now := time.Now()
	lastActive := sess.LastActive
	if lastActive.IsZero() {
		lastActive = now
	}

	// The update only lands when the row still holds the version this
	// caller read; an insert racing an existing row conflicts the same way.
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, history, version, last_active, expires_at)
		VALUES (?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			history     = excluded.history,
			version     = sessions.version + 1,
			last_active = excluded.last_active,
			expires_at  = excluded.expires_at
		WHERE sessions.version = ?
	`, sess.ID, history, lastActive.Unix(), now.Add(ttl).Unix(), sess.Version)
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if affected == 0 {
		return ErrConflict
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// Cleanup removes expired rows.
func (s *SQLiteStore) Cleanup(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now().Unix())
	return err
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
