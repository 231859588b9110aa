// Package store is the local SQLite-backed persistence layer for saved
// designs. The synthesis core never touches it; only the API layer decides
// what to persist.
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

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no design exists for the given id.
var ErrNotFound = errors.New("design not found")

// Design is one saved analysis/diagram pair. AnalysisJSON and DiagramJSON
// are opaque blobs owned by the caller; the store never inspects them.
type Design struct {
	DesignID        string `json:"design_id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	AnalysisJSON    string `json:"analysis_json,omitempty"`
	DiagramJSON     string `json:"diagram_json,omitempty"`
	CreatedAtUnixMs int64  `json:"created_at_unix_ms"`
	UpdatedAtUnixMs int64  `json:"updated_at_unix_ms"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func Open(path string) (*Store, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" {
		return nil, errors.New("missing db path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS designs (
			design_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			analysis_json TEXT NOT NULL DEFAULT '',
			diagram_json TEXT NOT NULL DEFAULT '',
			created_at_unix_ms INTEGER NOT NULL,
			updated_at_unix_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_designs_updated ON designs(updated_at_unix_ms DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Create inserts a new design and returns it with id and timestamps set.
func (s *Store) Create(ctx context.Context, d Design) (Design, error) {
	if strings.TrimSpace(d.Name) == "" {
		return Design{}, errors.New("missing design name")
	}
	d.DesignID = "dsg_" + uuid.NewString()
	nowMs := s.now().UnixMilli()
	d.CreatedAtUnixMs = nowMs
	d.UpdatedAtUnixMs = nowMs

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO designs (design_id, name, description, analysis_json, diagram_json, created_at_unix_ms, updated_at_unix_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.DesignID, strings.TrimSpace(d.Name), d.Description, d.AnalysisJSON, d.DiagramJSON, d.CreatedAtUnixMs, d.UpdatedAtUnixMs)
	if err != nil {
		return Design{}, err
	}
	return d, nil
}

func (s *Store) Get(ctx context.Context, designID string) (Design, error) {
	designID = strings.TrimSpace(designID)
	if designID == "" {
		return Design{}, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT design_id, name, description, analysis_json, diagram_json, created_at_unix_ms, updated_at_unix_ms
		 FROM designs WHERE design_id = ?`, designID)

	var d Design
	err := row.Scan(&d.DesignID, &d.Name, &d.Description, &d.AnalysisJSON, &d.DiagramJSON, &d.CreatedAtUnixMs, &d.UpdatedAtUnixMs)
	if errors.Is(err, sql.ErrNoRows) {
		return Design{}, ErrNotFound
	}
	if err != nil {
		return Design{}, err
	}
	return d, nil
}

// List returns designs newest-first, capped at limit (default 100).
func (s *Store) List(ctx context.Context, limit int) ([]Design, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT design_id, name, description, analysis_json, diagram_json, created_at_unix_ms, updated_at_unix_ms
		 FROM designs ORDER BY updated_at_unix_ms DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Design, 0, limit)
	for rows.Next() {
		var d Design
		if err := rows.Scan(&d.DesignID, &d.Name, &d.Description, &d.AnalysisJSON, &d.DiagramJSON, &d.CreatedAtUnixMs, &d.UpdatedAtUnixMs); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Update replaces the mutable fields of an existing design wholesale.
func (s *Store) Update(ctx context.Context, d Design) (Design, error) {
	if strings.TrimSpace(d.DesignID) == "" {
		return Design{}, ErrNotFound
	}
	if strings.TrimSpace(d.Name) == "" {
		return Design{}, errors.New("missing design name")
	}
	d.UpdatedAtUnixMs = s.now().UnixMilli()

	res, err := s.db.ExecContext(ctx,
		`UPDATE designs SET name = ?, description = ?, analysis_json = ?, diagram_json = ?, updated_at_unix_ms = ?
		 WHERE design_id = ?`,
		strings.TrimSpace(d.Name), d.Description, d.AnalysisJSON, d.DiagramJSON, d.UpdatedAtUnixMs, strings.TrimSpace(d.DesignID))
	if err != nil {
		return Design{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Design{}, err
	}
	if n == 0 {
		return Design{}, ErrNotFound
	}
	return s.Get(ctx, d.DesignID)
}

func (s *Store) Delete(ctx context.Context, designID string) error {
	designID = strings.TrimSpace(designID)
	if designID == "" {
		return ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM designs WHERE design_id = ?`, designID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
