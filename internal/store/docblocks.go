package store

import (
	"database/sql"
	"fmt"
)

// --- Branch operations ---

func (s *Store) InsertBranch(b *Branch) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO branches (project, label, core_compatibility, is_core) VALUES (?, ?, ?, ?)",
		b.Project, b.Label, b.CoreCompatibility, b.IsCore,
	)
	if err != nil {
		return 0, fmt.Errorf("insert branch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	b.ID = id
	return id, nil
}

const branchCols = `id, project, label, core_compatibility, is_core`

func (s *Store) queryBranches(query string, args ...any) ([]*Branch, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var branches []*Branch
	for rows.Next() {
		b := &Branch{}
		if err := rows.Scan(&b.ID, &b.Project, &b.Label, &b.CoreCompatibility, &b.IsCore); err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

// BranchByID returns the branch with the given id, or nil if none exists.
func (s *Store) BranchByID(id int64) (*Branch, error) {
	b := &Branch{}
	err := s.db.QueryRow(
		"SELECT "+branchCols+" FROM branches WHERE id = ?", id,
	).Scan(&b.ID, &b.Project, &b.Label, &b.CoreCompatibility, &b.IsCore)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("branch by id: %w", err)
	}
	return b, nil
}

func (s *Store) Branches() ([]*Branch, error) {
	branches, err := s.queryBranches("SELECT " + branchCols + " FROM branches ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("branches: %w", err)
	}
	return branches, nil
}

// CompatibleBranchIDs returns the ids of every branch sharing b's core
// compatibility tag, b included. A branch without a tag is only compatible
// with itself.
func (s *Store) CompatibleBranchIDs(b *Branch) ([]int64, error) {
	if b.CoreCompatibility == "" {
		return []int64{b.ID}, nil
	}
	siblings, err := s.queryBranches(
		"SELECT "+branchCols+" FROM branches WHERE core_compatibility = ? ORDER BY id",
		b.CoreCompatibility,
	)
	if err != nil {
		return nil, fmt.Errorf("compatible branches: %w", err)
	}
	ids := []int64{b.ID}
	for _, sib := range siblings {
		if sib.ID != b.ID {
			ids = append(ids, sib.ID)
		}
	}
	return ids, nil
}

// BranchScopes returns the name resolution scopes for b, narrowest first:
// the branch itself, then the core branch(es) sharing its compatibility
// tag, then every other branch sharing the tag. Each branch id appears in
// exactly one scope and empty scopes are omitted.
func (s *Store) BranchScopes(b *Branch) ([][]int64, error) {
	scopes := [][]int64{{b.ID}}
	if b.CoreCompatibility == "" {
		return scopes, nil
	}
	siblings, err := s.queryBranches(
		"SELECT "+branchCols+" FROM branches WHERE core_compatibility = ? AND id != ? ORDER BY id",
		b.CoreCompatibility, b.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("branch scopes: %w", err)
	}
	var core, others []int64
	for _, sib := range siblings {
		if sib.IsCore {
			core = append(core, sib.ID)
		} else {
			others = append(others, sib.ID)
		}
	}
	if len(core) > 0 {
		scopes = append(scopes, core)
	}
	if len(others) > 0 {
		scopes = append(scopes, others)
	}
	return scopes, nil
}

// --- DocBlock operations ---

func (s *Store) InsertDocBlock(d *DocBlock) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO docblocks (branch_id, kind, name, member_name, class_id, summary, documentation)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.BranchID, d.Kind, d.Name, d.MemberName, d.ClassID, d.Summary, d.Documentation,
	)
	if err != nil {
		return 0, fmt.Errorf("insert docblock: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	d.ID = id
	return id, nil
}

// DocBlockCols is the column list for doc block queries, exported for use
// by QueryBuilder.
const DocBlockCols = `id, branch_id, kind, name, member_name, class_id, summary, documentation`

// ScanDocBlockRow scans a single row into a DocBlock. Exported for use by
// QueryBuilder.
func ScanDocBlockRow(scanner interface{ Scan(...any) error }) (*DocBlock, error) {
	d := &DocBlock{}
	err := scanner.Scan(&d.ID, &d.BranchID, &d.Kind, &d.Name, &d.MemberName,
		&d.ClassID, &d.Summary, &d.Documentation)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) queryDocBlocks(query string, args ...any) ([]*DocBlock, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []*DocBlock
	for rows.Next() {
		d, err := ScanDocBlockRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan docblock: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *Store) queryIDs(query string, args ...any) ([]int64, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DocBlock returns the doc block with the given id, or nil if none exists.
func (s *Store) DocBlock(id int64) (*DocBlock, error) {
	d, err := ScanDocBlockRow(s.db.QueryRow("SELECT "+DocBlockCols+" FROM docblocks WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("docblock: %w", err)
	}
	return d, nil
}

// DocBlocksByIDs loads many doc blocks at once. Missing ids are skipped.
func (s *Store) DocBlocksByIDs(ids []int64) ([]*DocBlock, error) {
	var docs []*DocBlock
	for _, chunk := range chunkIDs(ids, s.deleteBatchSize) {
		part, err := s.queryDocBlocks(
			"SELECT "+DocBlockCols+" FROM docblocks WHERE id IN ("+placeholderList(len(chunk))+") ORDER BY id",
			int64sToArgs(chunk)...,
		)
		if err != nil {
			return nil, fmt.Errorf("docblocks by ids: %w", err)
		}
		docs = append(docs, part...)
	}
	return docs, nil
}

// ClassLikeIDsByBranch returns the ids of every class, interface, and trait
// in a branch, in id order.
func (s *Store) ClassLikeIDsByBranch(branchID int64) ([]int64, error) {
	ids, err := s.queryIDs(
		"SELECT id FROM docblocks WHERE branch_id = ? AND kind IN ("+placeholderList(len(ClassLikeKinds))+") ORDER BY id",
		append([]any{branchID}, stringsToArgs(ClassLikeKinds)...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("class-like ids by branch: %w", err)
	}
	return ids, nil
}

// ClassLikeIDsByName returns the distinct ids of class-like doc blocks with
// the given namespaced name in any of branchIDs.
func (s *Store) ClassLikeIDsByName(name string, branchIDs []int64) ([]int64, error) {
	if len(branchIDs) == 0 {
		return nil, nil
	}
	args := []any{name}
	args = append(args, stringsToArgs(ClassLikeKinds)...)
	args = append(args, int64sToArgs(branchIDs)...)
	ids, err := s.queryIDs(
		`SELECT DISTINCT id FROM docblocks
		 WHERE name = ? AND kind IN (`+placeholderList(len(ClassLikeKinds))+`)
		   AND branch_id IN (`+placeholderList(len(branchIDs))+`)
		 ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("class-like ids by name: %w", err)
	}
	return ids, nil
}

// MembersOf returns the functions, properties, and constants owned by
// classID within branchID, in id order.
func (s *Store) MembersOf(classID, branchID int64) ([]*DocBlock, error) {
	args := []any{classID, branchID}
	args = append(args, stringsToArgs(MemberKinds)...)
	docs, err := s.queryDocBlocks(
		"SELECT "+DocBlockCols+` FROM docblocks
		 WHERE class_id = ? AND branch_id = ? AND kind IN (`+placeholderList(len(MemberKinds))+`)
		 ORDER BY id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("members of: %w", err)
	}
	return docs, nil
}

func (s *Store) UpdateDocBlockSummary(id int64, summary string) error {
	_, err := s.db.Exec("UPDATE docblocks SET summary = ? WHERE id = ?", summary, id)
	if err != nil {
		return fmt.Errorf("update docblock summary: %w", err)
	}
	return nil
}
