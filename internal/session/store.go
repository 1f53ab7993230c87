// Package session persists design-tool conversations and their rendered
// artifacts.
package session

import (
	"bytes"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"

	// Pure-Go SQLite driver for database/sql.
	_ "github.com/glebarez/sqlite"
)

// maxArtifactSize bounds a decompressed stored artifact.
const maxArtifactSize = 128 * 1024 * 1024 // 128 MB

// Message is one chat turn within a session.
type Message struct {
	ID        int64
	SessionID string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Artifact is one rendered mesh tied to the script that produced it.
type Artifact struct {
	ID        string
	SessionID string
	Script    string
	Data      []byte
	CreatedAt time.Time
}

// Store is a SQLite-backed session store. Artifact bytes are kept
// brotli-compressed at rest.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS artifacts (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id),
	script     TEXT NOT NULL,
	data       BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// ValidateSessionID rejects session IDs that contain path traversal
// characters, null bytes, or are empty/too long.
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session ID must not be empty")
	}
	if len(id) > 128 {
		return fmt.Errorf("session ID too long")
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("session ID contains path traversal")
	}
	if strings.ContainsAny(id, "/\\") {
		return fmt.Errorf("session ID contains path separator")
	}
	if strings.ContainsRune(id, 0) {
		return fmt.Errorf("session ID contains null byte")
	}
	return nil
}

// Open opens (or creates) the session database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating session directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing session schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory store, used by tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory session database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing session schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create starts a new session and returns its ID.
func (s *Store) Create() (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO sessions (id, created_at) VALUES (?, ?)`, id, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return id, nil
}

// AppendMessage records one chat turn.
func (s *Store) AppendMessage(sessionID, role, content string) error {
	if err := ValidateSessionID(sessionID); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, role, content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}
	return nil
}

// History returns a session's messages in insertion order.
func (s *Store) History(sessionID string) ([]Message, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT id, session_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SaveArtifact stores a rendered mesh, compressed, and returns its ID.
func (s *Store) SaveArtifact(sessionID, script string, data []byte) (string, error) {
	if err := ValidateSessionID(sessionID); err != nil {
		return "", err
	}
	compressed, err := compress(data)
	if err != nil {
		return "", fmt.Errorf("compressing artifact: %w", err)
	}
	id := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO artifacts (id, session_id, script, data, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, sessionID, script, compressed, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("saving artifact: %w", err)
	}
	return id, nil
}

// LoadArtifact returns a stored artifact with its bytes decompressed.
func (s *Store) LoadArtifact(id string) (*Artifact, error) {
	var a Artifact
	var compressed []byte
	err := s.db.QueryRow(
		`SELECT id, session_id, script, data, created_at FROM artifacts WHERE id = ?`, id).
		Scan(&a.ID, &a.SessionID, &a.Script, &compressed, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("loading artifact %s: %w", id, err)
	}
	a.Data, err = decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("decompressing artifact %s: %w", id, err)
	}
	return &a, nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(io.LimitReader(r, maxArtifactSize+1))
	if err != nil {
		return nil, err
	}
	if len(out) > maxArtifactSize {
		return nil, fmt.Errorf("artifact exceeds %d bytes decompressed", maxArtifactSize)
	}
	return out, nil
}
