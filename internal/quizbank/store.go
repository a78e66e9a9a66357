// Package quizbank persists extracted quiz documents in SQLite so earlier
// runs can be listed, re-served, and deduplicated by content hash.
package quizbank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/revyard/quizgest/internal/extract"
)

// ErrNotFound is returned when no stored quiz matches the requested ID.
var ErrNotFound = errors.New("quiz not found")

const schema = `
CREATE TABLE IF NOT EXISTS quizzes (
	doc_id        TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	source        TEXT NOT NULL,
	content_hash  TEXT NOT NULL,
	records       TEXT NOT NULL,
	record_count  INTEGER NOT NULL,
	error_count   INTEGER NOT NULL,
	warning_count INTEGER NOT NULL,
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_quizzes_content_hash ON quizzes(content_hash);
`

// Entry is one stored quiz document with its extracted records.
type Entry struct {
	DocID        string           `json:"doc_id"`
	Title        string           `json:"title"`
	Source       string           `json:"source"`
	ContentHash  string           `json:"content_hash"`
	Records      []extract.Record `json:"records"`
	ErrorCount   int              `json:"error_count"`
	WarningCount int              `json:"warning_count"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Summary is the listing shape: everything except the record payload.
type Summary struct {
	DocID        string    `json:"doc_id"`
	Title        string    `json:"title"`
	Source       string    `json:"source"`
	ContentHash  string    `json:"content_hash"`
	RecordCount  int       `json:"record_count"`
	ErrorCount   int       `json:"error_count"`
	WarningCount int       `json:"warning_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is a SQLite-backed quiz bank.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the quiz bank at path. Parent directories
// are created. The usual SQLite service pragmas are applied: WAL journaling
// and a busy timeout so concurrent workers queue instead of failing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("quizbank: mkdir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("quizbank: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("quizbank: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("quizbank: schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts the entry, replacing any previous entry with the same doc ID.
func (s *Store) Save(ctx context.Context, e Entry) error {
	encoded, err := extract.EncodeRecords(e.Records)
	if err != nil {
		return fmt.Errorf("quizbank: encode records: %w", err)
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes
		(doc_id, title, source, content_hash, records, record_count, error_count, warning_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			title = excluded.title,
			source = excluded.source,
			content_hash = excluded.content_hash,
			records = excluded.records,
			record_count = excluded.record_count,
			error_count = excluded.error_count,
			warning_count = excluded.warning_count,
			created_at = excluded.created_at`,
		e.DocID, e.Title, e.Source, e.ContentHash, string(encoded),
		len(e.Records), e.ErrorCount, e.WarningCount, createdAt.Unix())
	if err != nil {
		return fmt.Errorf("quizbank: save %s: %w", e.DocID, err)
	}
	return nil
}

// Get returns the stored entry for docID, including its records.
func (s *Store) Get(ctx context.Context, docID string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT doc_id, title, source, content_hash, records,
		error_count, warning_count, created_at FROM quizzes WHERE doc_id = ?`, docID)

	var e Entry
	var records string
	var createdAt int64
	err := row.Scan(&e.DocID, &e.Title, &e.Source, &e.ContentHash, &records,
		&e.ErrorCount, &e.WarningCount, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("quizbank: get %s: %w", docID, err)
	}

	e.Records, err = extract.DecodeRecords([]byte(records))
	if err != nil {
		return Entry{}, fmt.Errorf("quizbank: get %s: %w", docID, err)
	}
	e.CreatedAt = time.Unix(createdAt, 0).UTC()
	return e, nil
}

// List returns summaries of all stored quizzes, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc_id, title, source, content_hash,
		record_count, error_count, warning_count, created_at
		FROM quizzes ORDER BY created_at DESC, doc_id`)
	if err != nil {
		return nil, fmt.Errorf("quizbank: list: %w", err)
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var sm Summary
		var createdAt int64
		if err := rows.Scan(&sm.DocID, &sm.Title, &sm.Source, &sm.ContentHash,
			&sm.RecordCount, &sm.ErrorCount, &sm.WarningCount, &createdAt); err != nil {
			return nil, fmt.Errorf("quizbank: list: %w", err)
		}
		sm.CreatedAt = time.Unix(createdAt, 0).UTC()
		summaries = append(summaries, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("quizbank: list: %w", err)
	}
	return summaries, nil
}

// Delete removes the stored entry for docID.
func (s *Store) Delete(ctx context.Context, docID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE doc_id = ?`, docID)
	if err != nil {
		return fmt.Errorf("quizbank: delete %s: %w", docID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("quizbank: delete %s: %w", docID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByHash returns the doc ID of a stored quiz with the given content
// hash, if any. Used to skip re-ingesting unchanged documents.
func (s *Store) FindByHash(ctx context.Context, hash string) (string, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT doc_id FROM quizzes WHERE content_hash = ? LIMIT 1`, hash)
	var docID string
	err := row.Scan(&docID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("quizbank: find by hash: %w", err)
	}
	return docID, true, nil
}
