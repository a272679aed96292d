package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/nodemap/pkg/graph"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS layouts (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	nodes      INTEGER NOT NULL,
	layout     BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS layouts_created_at ON layouts (created_at DESC);
`

var sqlitePragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
}

// SQLite is a Store in a SQLite database file.
type SQLite struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	for _, pragma := range sqlitePragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("applying pragma %q: %w", pragma, err)
		}
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLite{conn: conn, path: path, now: time.Now}, nil
}

// Path returns the database file.
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) Put(ctx context.Context, r Record) (Record, error) {
	r, err := prepare(r, s.now())
	if err != nil {
		return Record{}, err
	}
	data, err := graph.MarshalLayout(r.Layout)
	if err != nil {
		return Record{}, err
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO layouts (id, name, created_at, nodes, layout) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.CreatedAt.UnixMilli(), len(r.Layout.Nodes), data,
	)
	if err != nil {
		return Record{}, fmt.Errorf("inserting layout: %w", err)
	}
	return r, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (Record, error) {
	var (
		r    Record
		ts   int64
		data []byte
	)
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, name, created_at, layout FROM layouts WHERE id = ?`, id,
	).Scan(&r.ID, &r.Name, &ts, &data)
	if err == sql.ErrNoRows {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("querying layout: %w", err)
	}
	r.CreatedAt = time.UnixMilli(ts).UTC()
	if r.Layout, err = graph.UnmarshalLayout(data); err != nil {
		return Record{}, fmt.Errorf("layout %s: %w", id, err)
	}
	return r, nil
}

func (s *SQLite) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, name, created_at, nodes FROM layouts ORDER BY created_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing layouts: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum Summary
			ts  int64
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &ts, &sum.Nodes); err != nil {
			return nil, fmt.Errorf("scanning layout: %w", err)
		}
		sum.CreatedAt = time.UnixMilli(ts).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

var _ Store = (*SQLite)(nil)
