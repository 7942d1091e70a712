// Package store persists finished recipes in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aurachef/ladle/recipe"
)

// ErrNotFound is returned when no recipe exists for the requested id.
var ErrNotFound = errors.New("recipe not found")

// Summary is the listing view of a stored recipe.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	SourceURL string    `json:"source_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a SQLite-backed recipe archive. The full recipe is kept as a
// JSON document; id, title, source and creation time are promoted to
// columns for listing and lookup.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS recipes (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	source_url TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	document   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_recipes_created_at ON recipes (created_at DESC);
`

// Open opens or creates the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite handles one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts a finished recipe. The recipe must be finalized, so it
// carries an id and creation time.
func (s *Store) Save(ctx context.Context, r *recipe.Recipe) error {
	if r.ID == "" {
		return errors.New("recipe has no id")
	}
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode recipe: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO recipes (id, title, source_url, created_at, document)
		 VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.SourceURL, r.CreatedAt.UTC().Format(time.RFC3339), string(doc))
	if err != nil {
		return fmt.Errorf("save recipe: %w", err)
	}
	return nil
}

// Get returns the full recipe for an id.
func (s *Store) Get(ctx context.Context, id string) (*recipe.Recipe, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM recipes WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load recipe: %w", err)
	}

	var r recipe.Recipe
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return nil, fmt.Errorf("decode recipe: %w", err)
	}
	return &r, nil
}

// List returns summaries of all stored recipes, newest first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, source_url, created_at FROM recipes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var created string
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.SourceURL, &created); err != nil {
			return nil, fmt.Errorf("scan recipe row: %w", err)
		}
		sum.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a recipe by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
