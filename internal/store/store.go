package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultDeleteBatchSize bounds the number of ids bound into a single
// DELETE statement.
const DefaultDeleteBatchSize = 50

// ErrBranchNotFound is returned when an operation names a branch id that
// does not exist.
var ErrBranchNotFound = errors.New("branch not found")

// Store is the SQLite data access layer for lineage's 7 tables.
type Store struct {
	db              *sql.DB
	deleteBatchSize int
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, deleteBatchSize: DefaultDeleteBatchSize}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetDeleteBatchSize changes the chunk size used by batched deletes.
// Values below 1 are ignored.
func (s *Store) SetDeleteBatchSize(n int) {
	if n > 0 {
		s.deleteBatchSize = n
	}
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
-- Parsed tables

CREATE TABLE IF NOT EXISTS branches (
  id                 INTEGER PRIMARY KEY,
  project            TEXT NOT NULL,
  label              TEXT NOT NULL,
  core_compatibility TEXT NOT NULL DEFAULT '',
  is_core            BOOLEAN DEFAULT FALSE,
  UNIQUE (project, label)
);

CREATE TABLE IF NOT EXISTS docblocks (
  id              INTEGER PRIMARY KEY,
  branch_id       INTEGER NOT NULL REFERENCES branches(id),
  kind            TEXT NOT NULL,
  name            TEXT NOT NULL,
  member_name     TEXT NOT NULL DEFAULT '',
  class_id        INTEGER,
  summary         TEXT NOT NULL DEFAULT '',
  documentation   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS raw_references (
  id                  INTEGER PRIMARY KEY,
  docblock_id         INTEGER NOT NULL,
  branch_id           INTEGER NOT NULL REFERENCES branches(id),
  kind                TEXT NOT NULL,
  name                TEXT NOT NULL,
  extends_docblock_id INTEGER
);

CREATE TABLE IF NOT EXISTS trait_modifiers (
  id              INTEGER PRIMARY KEY,
  class_id        INTEGER NOT NULL,
  kind            TEXT NOT NULL,
  name            TEXT NOT NULL,
  alias           TEXT NOT NULL DEFAULT ''
);

-- Derived tables

CREATE TABLE IF NOT EXISTS class_members (
  id              INTEGER PRIMARY KEY,
  class_id        INTEGER NOT NULL,
  docblock_id     INTEGER NOT NULL,
  member_alias    TEXT NOT NULL,
  UNIQUE (docblock_id, member_alias, class_id)
);

CREATE TABLE IF NOT EXISTS overrides (
  id                        INTEGER PRIMARY KEY,
  docblock_id               INTEGER NOT NULL UNIQUE,
  overrides_docblock_id     INTEGER,
  documented_in_docblock_id INTEGER
);

CREATE TABLE IF NOT EXISTS computed_references (
  id                 INTEGER PRIMARY KEY,
  docblock_id        INTEGER NOT NULL,
  target_docblock_id INTEGER NOT NULL,
  kind               TEXT NOT NULL,
  branch_id          INTEGER NOT NULL
);

-- Indexes

CREATE INDEX IF NOT EXISTS idx_branches_core ON branches(core_compatibility);
CREATE INDEX IF NOT EXISTS idx_docblocks_branch_kind ON docblocks(branch_id, kind);
CREATE INDEX IF NOT EXISTS idx_docblocks_name ON docblocks(name);
CREATE INDEX IF NOT EXISTS idx_docblocks_class ON docblocks(class_id);
CREATE INDEX IF NOT EXISTS idx_raw_refs_docblock ON raw_references(docblock_id);
CREATE INDEX IF NOT EXISTS idx_raw_refs_name ON raw_references(name);
CREATE INDEX IF NOT EXISTS idx_raw_refs_extends ON raw_references(extends_docblock_id);
CREATE INDEX IF NOT EXISTS idx_trait_modifiers_class ON trait_modifiers(class_id);
CREATE INDEX IF NOT EXISTS idx_class_members_class ON class_members(class_id);
CREATE INDEX IF NOT EXISTS idx_class_members_docblock ON class_members(docblock_id);
CREATE INDEX IF NOT EXISTS idx_overrides_overrides ON overrides(overrides_docblock_id);
CREATE INDEX IF NOT EXISTS idx_computed_refs_docblock ON computed_references(docblock_id);
CREATE INDEX IF NOT EXISTS idx_computed_refs_target ON computed_references(target_docblock_id);
`

// DeleteBranchData transactionally removes every row belonging to a branch,
// derived facts first, then the parsed records, then the branch itself.
func (s *Store) DeleteBranchData(branchID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const docs = "SELECT id FROM docblocks WHERE branch_id = ?"
	for _, q := range []string{
		"DELETE FROM computed_references WHERE branch_id = ?",
		"DELETE FROM overrides WHERE docblock_id IN (" + docs + ")",
		"DELETE FROM class_members WHERE class_id IN (" + docs + ")",
		"DELETE FROM trait_modifiers WHERE class_id IN (" + docs + ")",
		"DELETE FROM raw_references WHERE branch_id = ?",
		"DELETE FROM docblocks WHERE branch_id = ?",
		"DELETE FROM branches WHERE id = ?",
	} {
		if _, err := tx.Exec(q, branchID); err != nil {
			return fmt.Errorf("delete branch data: %w", err)
		}
	}

	return tx.Commit()
}
