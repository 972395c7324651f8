package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"workboard/internal/logging"
	"workboard/internal/model"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// mirrorWriteTimeout bounds a single snapshot write.
const mirrorWriteTimeout = 2 * time.Second

// Mirror keeps a SQLite copy of the board. It subscribes to every category and
// rewrites a category's rows each time that category changes.
type Mirror struct {
	path string
	db   *sql.DB
	sub  *Subscription
	log  logrus.FieldLogger

	// err holds every write failure since OpenMirror. A later successful write
	// of another category does not repair the failed one, so it is never cleared.
	err error
}

func OpenMirror(ctx context.Context, path string, log logrus.FieldLogger) (*Mirror, error) {
	if log == nil {
		log = logging.Discard()
	}
	db, err := openSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	return &Mirror{path: path, db: db, log: log.WithField("mirror", path)}, nil
}

// Attach subscribes the mirror to s. The immediate replay writes the current
// state of every category.
func (m *Mirror) Attach(s *Store) error {
	if m.sub != nil {
		return errors.New("mirror already attached")
	}
	sub, err := s.SubscribeAll(m.write)
	if err != nil {
		return err
	}
	m.sub = sub
	return nil
}

// Err reports the write failures since the mirror was opened, joined, or nil.
func (m *Mirror) Err() error { return m.err }

func (m *Mirror) Close() error {
	m.sub.Cancel()
	m.sub = nil
	return m.db.Close()
}

func (m *Mirror) write(snap Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorWriteTimeout)
	defer cancel()
	if err := writeSnapshot(ctx, m.db, snap); err != nil {
		m.err = errors.Join(m.err, fmt.Errorf("write %s: %w", snap.Category, err))
		m.log.WithError(err).WithField("category", snap.Category).Warn("mirror write failed")
	}
}

func writeSnapshot(ctx context.Context, db *sql.DB, snap Snapshot) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM works WHERE category = ?`, string(snap.Category)); err != nil {
		return err
	}
	for i, w := range snap.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO works(id, category, position, title, body, due_at) VALUES(?, ?, ?, ?, ?, ?)`,
			w.ID, string(snap.Category), i, w.Title, w.Body, w.DueDate.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(k, v) VALUES('version', ?)`, fmt.Sprint(snap.Version)); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadMirror reads a mirror file back as per-category ordered lists. A missing
// file yields an empty result; a row whose due date does not parse is an error.
func LoadMirror(ctx context.Context, path string) (map[model.Category][]model.Work, error) {
	out := map[model.Category][]model.Work{}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, err
	}
	db, err := openSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT id, category, title, body, due_at FROM works ORDER BY category, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var w model.Work
		var cat, due string
		if err := rows.Scan(&w.ID, &cat, &w.Title, &w.Body, &due); err != nil {
			return nil, err
		}
		w.Category = model.Category(cat)
		if due = strings.TrimSpace(due); due != "" {
			t, err := time.Parse(time.RFC3339Nano, due)
			if err != nil {
				return nil, fmt.Errorf("work %s: due_at %q: %w", w.ID, due, err)
			}
			// Stored in UTC; the board reads and edits wall-clock time in the local zone.
			w.DueDate = t.Local()
		}
		out[w.Category] = append(out[w.Category], w)
	}
	return out, rows.Err()
}

// Seed adds previously mirrored works to s in category display order. Works whose
// category is no longer configured are skipped and reported in the returned count.
func Seed(s *Store, lists map[model.Category][]model.Work) (skipped int, err error) {
	for _, c := range s.Categories() {
		for _, w := range lists[c] {
			if err := s.Add(w); err != nil {
				return skipped, fmt.Errorf("seed %s: %w", w.ID, err)
			}
		}
	}
	for c, items := range lists {
		if !s.HasCategory(c) {
			skipped += len(items)
		}
	}
	return skipped, nil
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; WAL keeps `workboard list` readable while the TUI is running.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateMirror(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrateMirror(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS works (
			id TEXT PRIMARY KEY,
			category TEXT NOT NULL,
			position INTEGER NOT NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			due_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS works_by_category ON works(category, position);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("migrate mirror: %w", err)
		}
	}
	return nil
}
