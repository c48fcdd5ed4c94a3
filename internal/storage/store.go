// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jeranaias/agendeid-chat/internal/model"
	"github.com/jeranaias/agendeid-chat/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultMaxRuns is how many runs Prune keeps when asked for zero.
	DefaultMaxRuns = 100

	// PreviewLength is the rune length of RunMeta.Preview.
	PreviewLength = 60
)

// ErrRunNotFound is returned when no run matches an ID or prefix.
var ErrRunNotFound = errors.New("transcript not found")

// ErrAmbiguousID is returned when an ID prefix matches more than one run.
var ErrAmbiguousID = errors.New("transcript ID prefix is ambiguous")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	route      TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
	run_id    TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq       INTEGER NOT NULL,
	id        TEXT NOT NULL,
	role      TEXT NOT NULL,
	text      TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	kind      TEXT NOT NULL DEFAULT '',
	fields    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_updated ON runs(updated_at DESC);
`

// =============================================================================
// TYPES
// =============================================================================

// Store is a transcript database.
type Store struct {
	db   *sql.DB
	path string
}

// RunMeta describes a run without loading its entries.
type RunMeta struct {
	ID           string    `json:"id"`
	Route        string    `json:"route"`
	StartedAt    time.Time `json:"started_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"`
}

// ShortID returns the first eight characters of the run ID.
func (m RunMeta) ShortID() string {
	if len(m.ID) <= 8 {
		return m.ID
	}
	return m.ID[:8]
}

// Transcript is a run with its recorded entries in order.
type Transcript struct {
	RunMeta
	Entries []*model.Message `json:"entries"`
}

// Run records entries for one chat launch.
type Run struct {
	store     *Store
	ID        string
	Route     string
	StartedAt time.Time

	mu  sync.Mutex
	seq int
}

// =============================================================================
// OPEN / CLOSE
// =============================================================================

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// =============================================================================
// RECORDING
// =============================================================================

// StartRun creates a new run for the page at route.
func (s *Store) StartRun(route string) (*Run, error) {
	now := time.Now()
	run := &Run{store: s, ID: uuid.NewString(), Route: route, StartedAt: now}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, route, started_at, updated_at) VALUES (?, ?, ?, ?)`,
		run.ID, route, now.UnixNano(), now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start transcript: %w", err)
	}
	return run, nil
}

// Record appends msg to the run.
func (r *Run) Record(msg *model.Message) error {
	if msg == nil {
		return nil
	}

	var kind, fields string
	if msg.Reply != nil {
		kind = msg.Reply.Kind
		if len(msg.Reply.Fields) > 0 {
			data, err := json.Marshal(msg.Reply.Fields)
			if err != nil {
				return fmt.Errorf("failed to encode fields: %w", err)
			}
			fields = string(data)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.store.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO entries (run_id, seq, id, role, text, timestamp, kind, fields)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.seq, msg.ID, string(msg.Role), msg.Text, msg.Timestamp.UnixNano(), kind, fields,
	)
	if err != nil {
		return fmt.Errorf("failed to record entry: %w", err)
	}
	if _, err := tx.Exec(`UPDATE runs SET updated_at = ? WHERE id = ?`, msg.Timestamp.UnixNano(), r.ID); err != nil {
		return fmt.Errorf("failed to touch run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entry: %w", err)
	}

	r.seq++
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// ListRuns returns up to limit runs, most recently updated first.
// A limit of zero or less returns all runs.
func (s *Store) ListRuns(limit int) ([]RunMeta, error) {
	query := `
		SELECT r.id, r.route, r.started_at, r.updated_at,
		       (SELECT COUNT(*) FROM entries e WHERE e.run_id = r.id),
		       COALESCE((SELECT e.text FROM entries e
		                 WHERE e.run_id = r.id AND e.role = 'user'
		                 ORDER BY e.seq LIMIT 1), '')
		FROM runs r
		ORDER BY r.updated_at DESC, r.started_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	var metas []RunMeta
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeta(row scanner) (RunMeta, error) {
	var (
		meta             RunMeta
		started, updated int64
		preview          string
	)
	if err := row.Scan(&meta.ID, &meta.Route, &started, &updated, &meta.MessageCount, &preview); err != nil {
		return RunMeta{}, fmt.Errorf("failed to read transcript row: %w", err)
	}
	meta.StartedAt = time.Unix(0, started)
	meta.UpdatedAt = time.Unix(0, updated)
	meta.Preview = util.TruncateRunes(strings.Join(strings.Fields(preview), " "), PreviewLength)
	return meta, nil
}

// ResolveID expands a unique ID prefix to the full run ID.
func (s *Store) ResolveID(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", ErrRunNotFound
	}

	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	rows, err := s.db.Query(`SELECT id FROM runs WHERE id LIKE ? ESCAPE '\' LIMIT 2`, escaped+"%")
	if err != nil {
		return "", fmt.Errorf("failed to resolve transcript: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(ids) {
	case 0:
		return "", ErrRunNotFound
	case 1:
		return ids[0], nil
	default:
		for _, id := range ids {
			if id == prefix {
				return id, nil
			}
		}
		return "", fmt.Errorf("%w: %s", ErrAmbiguousID, prefix)
	}
}

// LoadRun loads the run whose ID is or starts with id.
func (s *Store) LoadRun(id string) (*Transcript, error) {
	full, err := s.ResolveID(id)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(`
		SELECT r.id, r.route, r.started_at, r.updated_at,
		       (SELECT COUNT(*) FROM entries e WHERE e.run_id = r.id),
		       COALESCE((SELECT e.text FROM entries e
		                 WHERE e.run_id = r.id AND e.role = 'user'
		                 ORDER BY e.seq LIMIT 1), '')
		FROM runs r WHERE r.id = ?`, full)
	meta, err := scanMeta(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT id, role, text, timestamp, kind, fields FROM entries WHERE run_id = ? ORDER BY seq`, full)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	defer rows.Close()

	tr := &Transcript{RunMeta: meta}
	for rows.Next() {
		var (
			msg          model.Message
			role         string
			ts           int64
			kind, fields string
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Text, &ts, &kind, &fields); err != nil {
			return nil, fmt.Errorf("failed to read entry: %w", err)
		}
		msg.Role = model.Role(role)
		msg.Timestamp = time.Unix(0, ts)
		if kind != "" || fields != "" {
			msg.Reply = &model.ReplyMeta{Kind: kind}
			if fields != "" {
				if err := json.Unmarshal([]byte(fields), &msg.Reply.Fields); err != nil {
					return nil, fmt.Errorf("failed to decode fields: %w", err)
				}
			}
		}
		tr.Entries = append(tr.Entries, &msg)
	}
	return tr, rows.Err()
}

// DeleteRun removes a run and its entries.
func (s *Store) DeleteRun(id string) error {
	full, err := s.ResolveID(id)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, full); err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	return nil
}

// Prune keeps the keep most recently updated runs and deletes the rest.
// It returns how many runs were removed.
func (s *Store) Prune(keep int) (int, error) {
	if keep <= 0 {
		keep = DefaultMaxRuns
	}
	res, err := s.db.Exec(`
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY updated_at DESC, started_at DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune transcripts: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
