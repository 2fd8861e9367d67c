// Package store persists the pipeline's tables between runs. Each
// logical table is saved under a key in a SQLite file: the schema
// (including factor level sets) as JSON, the rows as positional JSON
// arrays, so every declared field type round-trips exactly.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/karstfen/soilcn/internal/table"
)

//go:embed schema.sql
var schemaSQL string

// Store is a process-local key to table store backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open creates or opens the store database at the given path. The
// database is configured with WAL journaling, NORMAL synchronous mode,
// a busy timeout, and foreign key enforcement. Safe to call on an
// existing store file.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to store: %w", err)
	}

	// single writer keeps SQLITE_BUSY away
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save durably stores a table under the key, replacing any previous
// table saved there. The write is a single transaction: a failed save
// leaves the previous contents intact.
func (s *Store) Save(ctx context.Context, key string, tab *table.Table) error {
	if key == "" {
		return fmt.Errorf("save table: empty key")
	}
	if err := tab.Schema.Validate(); err != nil {
		return fmt.Errorf("save table %q: %w", key, err)
	}
	schemaJSON, err := json.Marshal(tab.Schema)
	if err != nil {
		return fmt.Errorf("save table %q: marshal schema: %w", key, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save table %q: begin tx: %w", key, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM table_rows WHERE key = ?`, key); err != nil {
		return fmt.Errorf("save table %q: clear rows: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tables WHERE key = ?`, key); err != nil {
		return fmt.Errorf("save table %q: clear entry: %w", key, err)
	}

	savedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tables (key, schema_json, saved_at) VALUES (?, ?, ?)
	`, key, string(schemaJSON), savedAt); err != nil {
		return fmt.Errorf("save table %q: insert entry: %w", key, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO table_rows (key, seq, row_json) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save table %q: prepare rows: %w", key, err)
	}
	defer stmt.Close()
	for i, row := range tab.Rows {
		rowJSON, err := tab.Schema.EncodeRow(row)
		if err != nil {
			return fmt.Errorf("save table %q: row %d: %w", key, i, err)
		}
		if _, err := stmt.ExecContext(ctx, key, i, string(rowJSON)); err != nil {
			return fmt.Errorf("save table %q: insert row %d: %w", key, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save table %q: commit: %w", key, err)
	}
	return nil
}

// Load retrieves the table saved under the key. Loading a key that was
// never saved is a TableNotFoundError.
func (s *Store) Load(ctx context.Context, key string) (*table.Table, error) {
	var schemaJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT schema_json FROM tables WHERE key = ?
	`, key).Scan(&schemaJSON)
	if err == sql.ErrNoRows {
		return nil, &TableNotFoundError{Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("load table %q: %w", key, err)
	}

	var schema table.Schema
	if err := json.Unmarshal([]byte(schemaJSON), &schema); err != nil {
		return nil, fmt.Errorf("load table %q: decode schema: %w", key, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT row_json FROM table_rows WHERE key = ? ORDER BY seq
	`, key)
	if err != nil {
		return nil, fmt.Errorf("load table %q: query rows: %w", key, err)
	}
	defer rows.Close()

	tab := table.New(schema)
	for rows.Next() {
		var rowJSON string
		if err := rows.Scan(&rowJSON); err != nil {
			return nil, fmt.Errorf("load table %q: scan row: %w", key, err)
		}
		row, err := schema.DecodeRow([]byte(rowJSON))
		if err != nil {
			return nil, fmt.Errorf("load table %q: %w", key, err)
		}
		tab.Rows = append(tab.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load table %q: %w", key, err)
	}
	return tab, nil
}

// TableInfo summarizes one saved table for listings.
type TableInfo struct {
	Key     string
	Columns int
	Rows    int
	SavedAt string
}

// List returns a summary of every saved table, ordered by key.
func (s *Store) List(ctx context.Context) ([]TableInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.key, t.schema_json, t.saved_at, COUNT(r.key)
		FROM tables t
		LEFT JOIN table_rows r ON r.key = t.key
		GROUP BY t.key
		ORDER BY t.key
	`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var infos []TableInfo
	for rows.Next() {
		var info TableInfo
		var schemaJSON string
		if err := rows.Scan(&info.Key, &schemaJSON, &info.SavedAt, &info.Rows); err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		var schema table.Schema
		if err := json.Unmarshal([]byte(schemaJSON), &schema); err != nil {
			return nil, fmt.Errorf("list tables: decode schema for %q: %w", info.Key, err)
		}
		info.Columns = len(schema.Columns)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return infos, nil
}
